package model

import "time"

// Product is an artwork offered in the gallery.  OwnerUsername ties it to the
// account that listed it; only that account may modify it.
type Product struct {
    ID            string    `json:"id"`
    Title         string    `json:"title"`
    Description   string    `json:"description"`
    Price         float64   `json:"price"`
    Color         string    `json:"color,omitempty"`
    Dimensions    string    `json:"dimensions,omitempty"` // free form, usually "AxB"
    Type          string    `json:"type,omitempty"`       // medium, e.g. "oil on canvas"
    ImageURL      string    `json:"productImage,omitempty"`
    OwnerUsername string    `json:"associatedUsername"`
    CreatedAt     time.Time `json:"createdAt"`
    UpdatedAt     time.Time `json:"updatedAt"`
}

// ProductPatch holds the optional fields of a product update.
type ProductPatch struct {
    Title       *string
    Description *string
    Price       *float64
    Color       *string
    Dimensions  *string
    Type        *string
    ImageURL    *string
}

// Empty reports whether the patch would change nothing.
func (p ProductPatch) Empty() bool {
    return p.Title == nil && p.Description == nil && p.Price == nil && p.Color == nil &&
        p.Dimensions == nil && p.Type == nil && p.ImageURL == nil
}

// Apply copies the set fields of p onto pr.
func (p ProductPatch) Apply(pr *Product) {
    if p.Title != nil {
        pr.Title = *p.Title
    }
    if p.Description != nil {
        pr.Description = *p.Description
    }
    if p.Price != nil {
        pr.Price = *p.Price
    }
    if p.Color != nil {
        pr.Color = *p.Color
    }
    if p.Dimensions != nil {
        pr.Dimensions = *p.Dimensions
    }
    if p.Type != nil {
        pr.Type = *p.Type
    }
    if p.ImageURL != nil {
        pr.ImageURL = *p.ImageURL
    }
}

// ProductFilter narrows a listing.  Zero values match everything.
type ProductFilter struct {
    Type  string
    Owner string
}
