package session

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_LoadEmpty(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	s, err := repo.Load()
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestRepository_SaveAndLoad(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	created := time.Unix(1758000000, 0)

	require.NoError(t, repo.Save(Session{Token: "t1", Email: "a@b.c", Role: "admin", CreatedAt: created}))

	s, err := repo.Load()
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "t1", s.Token)
	assert.Equal(t, "a@b.c", s.Email)
	assert.Equal(t, "admin", s.Role)
	assert.True(t, s.CreatedAt.Equal(created))
}

func TestRepository_SaveReplaces(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.Save(Session{Token: "t1", Email: "a@b.c"}))
	require.NoError(t, repo.Save(Session{Token: "t2", Email: "d@e.f"}))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM session").Scan(&count))
	assert.Equal(t, 1, count)

	s, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, "t2", s.Token)
	assert.Equal(t, "user", s.Role)
}

func TestRepository_SaveRequiresToken(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	assert.Error(t, repo.Save(Session{Email: "a@b.c"}))
}

func TestRepository_Delete(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	require.NoError(t, repo.Save(Session{Token: "t1", Email: "a@b.c"}))

	require.NoError(t, repo.Delete())
	require.NoError(t, repo.Delete())

	s, err := repo.Load()
	require.NoError(t, err)
	assert.Nil(t, s)
}
