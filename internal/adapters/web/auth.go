package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"aura-finance/internal/app"
	"aura-finance/internal/core"

	"github.com/golang-jwt/jwt/v5"
)

const authCookie = "auth_token"

type authClaimsKey struct{}

// AuthClaims holds the authenticated user's identity and live session.
type AuthClaims struct {
	UserID  int
	Session *app.Session
}

// authFromContext returns the auth claims stored in ctx, or nil.
func authFromContext(ctx context.Context) *AuthClaims {
	v, _ := ctx.Value(authClaimsKey{}).(*AuthClaims)
	return v
}

// jwtClaims is the JWT payload struct used for signing and parsing.
type jwtClaims struct {
	UserID    int    `json:"user_id"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func (h *Handler) parseToken(r *http.Request) (*jwtClaims, error) {
	cookie, err := r.Cookie(authCookie)
	if err != nil {
		return nil, err
	}
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

// RequireAuth is chi middleware that validates the auth_token cookie, looks up
// the session it names and injects AuthClaims into the request context.
// Returns 401 if the token is absent, invalid, or its session has ended.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.parseToken(r)
		if err != nil {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		sess, ok := h.svc.Session(claims.SessionID)
		if !ok || sess.UserID != claims.UserID {
			writeError(w, r, "session expired", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsKey{}, &AuthClaims{
			UserID:  claims.UserID,
			Session: sess,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// register handles POST /api/auth/register and signs the new user in.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !h.startSession(w, r, user) {
		return
	}
	writeJSONStatus(w, http.StatusCreated, userResponse{ID: user.ID, Username: user.Username})
}

// login handles POST /api/auth/login.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !h.startSession(w, r, user) {
		return
	}
	writeJSON(w, userResponse{ID: user.ID, Username: user.Username})
}

// startSession opens a session and sets the signed cookie naming it.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *core.User) bool {
	sess := h.svc.StartSession(user.ID)

	now := time.Now()
	claims := &jwtClaims{
		UserID:    user.ID,
		SessionID: sess.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(h.sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		h.svc.EndSession(sess.ID)
		writeError(w, r, "token generation failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.sessionTTL.Seconds()),
	})
	return true
}

// logout handles POST /api/auth/logout: ends the session, dropping any
// unsaved draft, and clears the auth cookie.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if claims, err := h.parseToken(r); err == nil {
		h.svc.EndSession(claims.SessionID)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// me handles GET /api/auth/me and returns the current user's profile.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	user, err := h.svc.GetUser(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type meResponse struct {
		userResponse
		HasDraft bool `json:"has_draft"`
	}
	writeJSON(w, meResponse{
		userResponse: userResponse{ID: user.ID, Username: user.Username},
		HasDraft:     claims.Session.Draft() != nil,
	})
}
