package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"aura-finance/internal/app"
	"aura-finance/internal/core"
	"aura-finance/internal/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv points the CLI at a throwaway SQLite database with extraction disabled.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(dir, "aura.db"))
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runWithInput(t, nil, args...)
}

func runWithInput(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	e := &env{}
	t.Cleanup(e.close)

	cmd := newRootCmd(e)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMigrate(t *testing.T) {
	setupEnv(t)
	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date.")
}

func TestUserCreate(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "user", "create", "12345678Z", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user 12345678Z")

	_, err = run(t, "user", "create", "12345678Z", "--password", "secret1")
	assert.True(t, errors.Is(err, core.ErrDuplicateUser))

	t.Setenv(passwordEnv, "x")
	_, err = run(t, "user", "create", "87654321X")
	assert.True(t, errors.Is(err, app.ErrValidation))
}

func TestRender(t *testing.T) {
	dir := setupEnv(t)
	record := writeFile(t, dir, "record.json",
		`{"client_name":"Acme","invoice_number":"INV/7","date":"2024-03-01","items":[{"description":"Consulting","quantity":2,"unit_price":50}]}`)
	target := filepath.Join(dir, "out.pdf")

	out, err := run(t, "render", record, "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	pages, err := render.PageCount(data)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}

func TestRender_ExtractOutputKeepsAmount(t *testing.T) {
	dir := setupEnv(t)
	inv, err := core.Normalize(map[string]any{
		"client_name":    "Acme",
		"invoice_number": "INV-9",
		"items":          []any{map[string]any{"quantity": 1, "unit_price": 80}},
		"total_amount":   100,
	})
	require.NoError(t, err)

	var printed bytes.Buffer
	require.NoError(t, writeIndented(&printed, inv))

	raw, err := readRecord(bytes.NewReader(printed.Bytes()), "-")
	require.NoError(t, err)
	again, err := core.Normalize(raw)
	require.NoError(t, err)
	assert.True(t, again.Amount.Equal(inv.Amount), "amount %s became %s", inv.Amount, again.Amount)

	target := filepath.Join(dir, "out.pdf")
	_, err = runWithInput(t, bytes.NewReader(printed.Bytes()), "render", "-", "-o", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	pages, err := render.PageCount(data)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}

func TestRender_InvalidJSON(t *testing.T) {
	dir := setupEnv(t)
	record := writeFile(t, dir, "record.json", `{"client_name":`)

	_, err := run(t, "render", record)
	assert.ErrorContains(t, err, "invalid JSON")
}

func TestExtract_WithoutAPIKey(t *testing.T) {
	dir := setupEnv(t)
	scan := writeFile(t, dir, "scan.png", "\x89PNG\r\n\x1a\n0000")

	_, err := run(t, "extract", scan)
	assert.True(t, errors.Is(err, app.ErrExtractionUnavailable))
}

func TestCompare_RequiresBothDocuments(t *testing.T) {
	dir := setupEnv(t)
	invoice := writeFile(t, dir, "invoice.txt", "2 x Widget")
	note := writeFile(t, dir, "note.txt", "  ")

	_, err := run(t, "compare", invoice, note)
	assert.True(t, errors.Is(err, app.ErrValidation))
}

func TestFileMediaType(t *testing.T) {
	assert.Equal(t, "image/png", fileMediaType("scan.bin", []byte("\x89PNG\r\n\x1a\n0000")))
	assert.Equal(t, "application/pdf", fileMediaType("doc", []byte("%PDF-1.4\n")))
	assert.Equal(t, "image/jpeg", fileMediaType("photo.JPG", []byte{0x00, 0x01, 0x02}))
	assert.Equal(t, "text/plain", fileMediaType("notes.txt", []byte("hello")))
}
