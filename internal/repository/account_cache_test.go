package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/art-gallery/internal/model"
)

// countingStore serves a single account and counts backing lookups.
type countingStore struct {
	AccountStore
	acct    model.Account
	lookups int
}

func (s *countingStore) FindByID(_ context.Context, id string) (*model.Account, error) {
	s.lookups++
	if id != s.acct.ID {
		return nil, ErrNotFound
	}
	a := s.acct
	return &a, nil
}

func (s *countingStore) UpdateFields(_ context.Context, id string, p model.AccountPatch) (*model.Account, error) {
	if id != s.acct.ID {
		return nil, ErrNotFound
	}
	p.Apply(&s.acct)
	a := s.acct
	return &a, nil
}

func newCached(t *testing.T, next AccountStore) *CachedAccountStore {
	t.Helper()
	c, err := NewCachedAccountStore(context.Background(), next, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCachedAccountStore_ServesRepeatLookups(t *testing.T) {
	backing := &countingStore{acct: model.Account{ID: "1", Username: "alice", PasswordHash: "$2a$hash"}}
	c := newCached(t, backing)

	for i := 0; i < 3; i++ {
		a, err := c.FindByID(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, "alice", a.Username)
		assert.Equal(t, "$2a$hash", a.PasswordHash)
	}
	assert.Equal(t, 1, backing.lookups)

	_, err := c.FindByField(context.Background(), FieldID, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, backing.lookups)
}

func TestCachedAccountStore_MissesAreNotCached(t *testing.T) {
	backing := &countingStore{acct: model.Account{ID: "1"}}
	c := newCached(t, backing)

	for i := 0; i < 2; i++ {
		_, err := c.FindByID(context.Background(), "2")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 2, backing.lookups)
}

func TestCachedAccountStore_UpdateRefreshesEntry(t *testing.T) {
	backing := &countingStore{acct: model.Account{ID: "1", Address: "old"}}
	c := newCached(t, backing)

	_, err := c.FindByID(context.Background(), "1")
	require.NoError(t, err)

	addr := "new"
	_, err = c.UpdateFields(context.Background(), "1", model.AccountPatch{Address: &addr})
	require.NoError(t, err)

	a, err := c.FindByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "new", a.Address)
	assert.Equal(t, 1, backing.lookups)
}
