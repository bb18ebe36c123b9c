package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/iliyamo/art-gallery/internal/logutil"
	"github.com/iliyamo/art-gallery/internal/media"
	"github.com/iliyamo/art-gallery/internal/model"
	"github.com/iliyamo/art-gallery/internal/queue"
	"github.com/iliyamo/art-gallery/internal/repository"
)

// DefaultFindType is the medium /product/find filters on when none is given.
const DefaultFindType = "oil on canvas"

// CreateProductInput describes a new listing.  Image is optional.
type CreateProductInput struct {
	Title       string
	Description string
	Price       float64
	Color       string
	Dimensions  string
	Type        string
	Image       *media.Upload
}

// CatalogService manages products owned by accounts.
type CatalogService struct {
	products repository.ProductStore
	media    media.Uploader
	events   queue.Publisher
}

func NewCatalogService(products repository.ProductStore, uploader media.Uploader, events queue.Publisher) *CatalogService {
	if uploader == nil {
		uploader = media.Disabled{}
	}
	if events == nil {
		events = queue.Noop{}
	}
	return &CatalogService{products: products, media: uploader, events: events}
}

// Create stores a product owned by owner.  A failed image upload is logged
// and the product is saved without an image.
func (s *CatalogService) Create(ctx context.Context, owner *model.Account, in CreateProductInput) (*model.Product, error) {
	log := logutil.GetOrDefault(ctx)

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, errors.Wrap(ErrInvalidInput, "title is required")
	}
	if in.Price < 0 {
		return nil, errors.Wrap(ErrInvalidInput, "price must not be negative")
	}

	p := &model.Product{
		Title:         in.Title,
		Description:   in.Description,
		Price:         in.Price,
		Color:         in.Color,
		Dimensions:    in.Dimensions,
		Type:          in.Type,
		OwnerUsername: owner.Username,
	}
	if in.Image != nil {
		url, err := s.media.Upload(ctx, *in.Image)
		if err != nil {
			log.Warn().Err(err).Str("owner", owner.Username).Msg("product image upload failed; saving without image")
		} else {
			p.ImageURL = url
		}
	}

	created, err := s.products.Insert(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "insert product")
	}

	ev := queue.ProductCreatedEvent{
		ProductID:     created.ID,
		OwnerUsername: created.OwnerUsername,
		Title:         created.Title,
		Price:         created.Price,
		CreatedAt:     created.CreatedAt,
	}
	if err := s.events.Publish(ctx, queue.ProductCreatedQueue, ev); err != nil {
		log.Warn().Err(err).Str("product_id", created.ID).Msg("publish product.created failed")
	}
	return created, nil
}

// List returns the products matching f.
func (s *CatalogService) List(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	items, err := s.products.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return items, nil
}

// Update changes a product owned by owner.  Products of other accounts yield
// repository.ErrForbidden.
func (s *CatalogService) Update(ctx context.Context, owner *model.Account, id string, patch model.ProductPatch, image *media.Upload) (*model.Product, error) {
	if patch.Price != nil && *patch.Price < 0 {
		return nil, errors.Wrap(ErrInvalidInput, "price must not be negative")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, errors.Wrap(ErrInvalidInput, "title must not be empty")
	}

	current, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "load product")
	}
	if current.OwnerUsername != owner.Username {
		return nil, repository.ErrForbidden
	}

	if image != nil {
		url, err := s.media.Upload(ctx, *image)
		if err != nil {
			logutil.GetOrDefault(ctx).Warn().Err(err).Str("product_id", id).Msg("product image upload failed")
		} else {
			patch.ImageURL = &url
		}
	}
	if patch.Empty() {
		return nil, repository.ErrEmptyPatch
	}

	updated, err := s.products.UpdateFields(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "update product")
	}
	return updated, nil
}
