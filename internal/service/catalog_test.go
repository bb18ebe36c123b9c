package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/art-gallery/internal/media"
	"github.com/iliyamo/art-gallery/internal/model"
	"github.com/iliyamo/art-gallery/internal/queue"
	"github.com/iliyamo/art-gallery/internal/repository"
)

func newCatalog(t *testing.T) (*CatalogService, *mockUploader, *mockPublisher) {
	t.Helper()
	up, ev := &mockUploader{}, &mockPublisher{}
	ev.On("Publish", mock.Anything, queue.ProductCreatedQueue, mock.Anything).Return(nil).Maybe()
	t.Cleanup(func() { up.AssertExpectations(t) })
	return NewCatalogService(newMemProducts(), up, ev), up, ev
}

var (
	owner    = &model.Account{ID: "1", Username: "alice"}
	stranger = &model.Account{ID: "2", Username: "mallory"}
)

func TestCatalog_CreateAndList(t *testing.T) {
	svc, up, _ := newCatalog(t)
	ctx := context.Background()

	up.On("Upload", mock.Anything, mock.Anything).Return("https://cdn/dusk.jpg", nil).Once()
	p, err := svc.Create(ctx, owner, CreateProductInput{
		Title: "Dusk", Price: 120, Type: DefaultFindType,
		Image: &media.Upload{Filename: "dusk.jpg", Body: strings.NewReader("x")},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", p.OwnerUsername)
	assert.Equal(t, "https://cdn/dusk.jpg", p.ImageURL)

	_, err = svc.Create(ctx, stranger, CreateProductInput{Title: "Sketch", Price: 5, Type: "pencil"})
	require.NoError(t, err)

	oils, err := svc.List(ctx, model.ProductFilter{Type: DefaultFindType})
	require.NoError(t, err)
	require.Len(t, oils, 1)
	assert.Equal(t, "Dusk", oils[0].Title)

	mine, err := svc.List(ctx, model.ProductFilter{Owner: "mallory"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Sketch", mine[0].Title)
}

func TestCatalog_CreateImageFailureSavesProduct(t *testing.T) {
	svc, up, _ := newCatalog(t)
	up.On("Upload", mock.Anything, mock.Anything).Return("", errors.New("timeout")).Once()

	p, err := svc.Create(context.Background(), owner, CreateProductInput{
		Title: "Dusk", Price: 1, Image: &media.Upload{Filename: "d.jpg", Body: strings.NewReader("x")},
	})
	require.NoError(t, err)
	assert.Empty(t, p.ImageURL)
}

func TestCatalog_CreateValidates(t *testing.T) {
	svc, _, _ := newCatalog(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, CreateProductInput{Title: "  ", Price: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(ctx, owner, CreateProductInput{Title: "x", Price: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCatalog_UpdateOwnerOnly(t *testing.T) {
	svc, _, _ := newCatalog(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, owner, CreateProductInput{Title: "Dusk", Price: 10})
	require.NoError(t, err)

	price := 20.0
	_, err = svc.Update(ctx, stranger, p.ID, model.ProductPatch{Price: &price}, nil)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	got, err := svc.Update(ctx, owner, p.ID, model.ProductPatch{Price: &price}, nil)
	require.NoError(t, err)
	assert.Equal(t, 20.0, got.Price)

	_, err = svc.Update(ctx, owner, "999", model.ProductPatch{Price: &price}, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.Update(ctx, owner, p.ID, model.ProductPatch{}, nil)
	assert.ErrorIs(t, err, repository.ErrEmptyPatch)

	neg := -3.0
	_, err = svc.Update(ctx, owner, p.ID, model.ProductPatch{Price: &neg}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCatalog_PublishesProductCreated(t *testing.T) {
	ev := &mockPublisher{}
	svc := NewCatalogService(newMemProducts(), nil, ev)
	ev.On("Publish", mock.Anything, queue.ProductCreatedQueue, mock.MatchedBy(func(e queue.ProductCreatedEvent) bool {
		return e.Title == "Dusk" && e.OwnerUsername == "alice" && e.Price == 10
	})).Return(nil).Once()

	_, err := svc.Create(context.Background(), owner, CreateProductInput{Title: "Dusk", Price: 10})
	require.NoError(t, err)
	ev.AssertExpectations(t)
}
