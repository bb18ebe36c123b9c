package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/art-gallery/internal/media"
	"github.com/iliyamo/art-gallery/internal/model"
	"github.com/iliyamo/art-gallery/internal/repository"
)

// memAccounts is an AccountStore that enforces username and email
// uniqueness under a mutex, like a unique index would.
type memAccounts struct {
	mu     sync.Mutex
	byID   map[string]model.Account
	nextID int
	err    error // returned by every call when set
}

func newMemAccounts() *memAccounts { return &memAccounts{byID: map[string]model.Account{}} }

func (m *memAccounts) FindByField(_ context.Context, f repository.Field, v string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.byID {
		if (f == repository.FieldUsername && a.Username == v) ||
			(f == repository.FieldEmail && a.Email == v) ||
			(f == repository.FieldID && a.ID == v) {
			out := a
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memAccounts) FindByID(ctx context.Context, id string) (*model.Account, error) {
	return m.FindByField(ctx, repository.FieldID, id)
}

func (m *memAccounts) Insert(_ context.Context, a *model.Account) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, x := range m.byID {
		if x.Username == a.Username || x.Email == a.Email {
			return nil, repository.ErrDuplicate
		}
	}
	m.nextID++
	out := *a
	out.ID = strconv.Itoa(m.nextID)
	out.CreatedAt = time.Now().UTC()
	out.UpdatedAt = out.CreatedAt
	m.byID[out.ID] = out
	return &out, nil
}

func (m *memAccounts) UpdateFields(_ context.Context, id string, p model.AccountPatch) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.Email != nil {
		for _, x := range m.byID {
			if x.ID != id && x.Email == *p.Email {
				return nil, repository.ErrDuplicate
			}
		}
	}
	p.Apply(&a)
	m.byID[id] = a
	return &a, nil
}

func (m *memAccounts) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// memProducts is an in-memory ProductStore.
type memProducts struct {
	mu     sync.Mutex
	byID   map[string]model.Product
	nextID int
}

func newMemProducts() *memProducts { return &memProducts{byID: map[string]model.Product{}} }

func (m *memProducts) Insert(_ context.Context, p *model.Product) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	out := *p
	out.ID = strconv.Itoa(m.nextID)
	m.byID[out.ID] = out
	return &out, nil
}

func (m *memProducts) FindByID(_ context.Context, id string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *memProducts) List(_ context.Context, f model.ProductFilter) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Product{}
	for i := 1; i <= m.nextID; i++ {
		p, ok := m.byID[strconv.Itoa(i)]
		if !ok || (f.Type != "" && p.Type != f.Type) || (f.Owner != "" && p.OwnerUsername != f.Owner) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memProducts) UpdateFields(_ context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	patch.Apply(&p)
	m.byID[id] = p
	return &p, nil
}

// mockUploader records uploads through testify's mock.
type mockUploader struct{ mock.Mock }

func (m *mockUploader) Upload(ctx context.Context, u media.Upload) (string, error) {
	args := m.Called(ctx, u)
	return args.String(0), args.Error(1)
}

// mockPublisher records published events.
type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, key string, payload any) error {
	args := m.Called(ctx, key, payload)
	return args.Error(0)
}

// countingHasher wraps a hasher and counts Verify calls.
type countingHasher struct {
	PasswordHasher
	mu       sync.Mutex
	verifies int
}

func (h *countingHasher) Verify(hash, plain string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.PasswordHasher.Verify(hash, plain)
}
