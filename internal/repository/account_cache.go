package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/pkg/errors"

	"github.com/iliyamo/art-gallery/internal/model"
)

// CachedAccountStore keeps recently resolved accounts in an in-process
// bigcache so that the request authorizer does not hit the database for every
// authenticated request.  Only FindByID is served from the cache; writes go
// through to the backing store and refresh the entry.
type CachedAccountStore struct {
	AccountStore
	cache *bigcache.BigCache
}

// cachedAccount carries the password hash, which model.Account hides from JSON.
type cachedAccount struct {
	model.Account
	Hash string `json:"h"`
}

// NewCachedAccountStore wraps next with a cache whose entries live for ttl.
func NewCachedAccountStore(ctx context.Context, next AccountStore, ttl time.Duration) (*CachedAccountStore, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.CleanWindow = ttl
	cfg.Verbose = false
	c, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init account cache")
	}
	return &CachedAccountStore{AccountStore: next, cache: c}, nil
}

func (s *CachedAccountStore) FindByID(ctx context.Context, id string) (*model.Account, error) {
	if raw, err := s.cache.Get(id); err == nil {
		var ca cachedAccount
		if json.Unmarshal(raw, &ca) == nil {
			a := ca.Account
			a.PasswordHash = ca.Hash
			return &a, nil
		}
	}
	a, err := s.AccountStore.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(a)
	return a, nil
}

func (s *CachedAccountStore) FindByField(ctx context.Context, field Field, value string) (*model.Account, error) {
	if field == FieldID {
		return s.FindByID(ctx, value)
	}
	return s.AccountStore.FindByField(ctx, field, value)
}

func (s *CachedAccountStore) UpdateFields(ctx context.Context, id string, patch model.AccountPatch) (*model.Account, error) {
	_ = s.cache.Delete(id)
	a, err := s.AccountStore.UpdateFields(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.put(a)
	return a, nil
}

// Close releases the cache's background cleaner.
func (s *CachedAccountStore) Close() error { return s.cache.Close() }

func (s *CachedAccountStore) put(a *model.Account) {
	raw, err := json.Marshal(cachedAccount{Account: *a, Hash: a.PasswordHash})
	if err != nil {
		return
	}
	_ = s.cache.Set(a.ID, raw)
}
