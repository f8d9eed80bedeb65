package core

import (
	"time"
)

// User is an account owning clients and invoices. Username is the DNI/NIF the
// account registered with.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
