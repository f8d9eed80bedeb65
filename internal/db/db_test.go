package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPostgres(t *testing.T) {
	assert.True(t, IsPostgres("postgres://u:p@localhost/aura"))
	assert.True(t, IsPostgres("PostgreSQL://localhost/aura"))
	assert.False(t, IsPostgres("sqlite://aura_finance.db"))
	assert.False(t, IsPostgres("aura_finance.db"))
}

func TestSQLitePath(t *testing.T) {
	assert.Equal(t, "aura_finance.db", SQLitePath("sqlite://aura_finance.db"))
	assert.Equal(t, "file:x?mode=memory", SQLitePath("file:x?mode=memory"))
}

func TestOpenStore_SQLite(t *testing.T) {
	store, err := OpenStore(context.Background(), "sqlite://file:dbtest?mode=memory&cache=shared")
	require.NoError(t, err)
	defer store.Close()

	clients, err := store.GetClients(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, clients)
}

func TestNewPool_RequiresURL(t *testing.T) {
	_, err := NewPool(context.Background(), "")
	assert.Error(t, err)
}
