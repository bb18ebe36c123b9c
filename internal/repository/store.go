package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/art-gallery/internal/model"
)

// Field names an account attribute that supports point lookups.
type Field string

const (
	FieldID       Field = "id"
	FieldUsername Field = "username"
	FieldEmail    Field = "email"
)

// AccountStore persists accounts.  Implementations must enforce username and
// email uniqueness at the storage layer and report violations as ErrDuplicate.
type AccountStore interface {
	FindByField(ctx context.Context, field Field, value string) (*model.Account, error)
	FindByID(ctx context.Context, id string) (*model.Account, error)
	Insert(ctx context.Context, a *model.Account) (*model.Account, error)
	UpdateFields(ctx context.Context, id string, patch model.AccountPatch) (*model.Account, error)
}

// ProductStore persists catalog entries.
type ProductStore interface {
	Insert(ctx context.Context, p *model.Product) (*model.Product, error)
	FindByID(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context, f model.ProductFilter) ([]model.Product, error)
	UpdateFields(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error)
}

// NormalizeEmail lower-cases and trims an address so lookups and the unique
// index agree on one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
