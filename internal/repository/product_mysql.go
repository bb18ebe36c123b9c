package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/iliyamo/art-gallery/internal/model"
)

const productColumns = "id,title,description,price,color,dimensions,type,image_url,owner_username,created_at,updated_at"

// MySQLProductRepo stores products in the 'products' table.
type MySQLProductRepo struct {
	DB  *sql.DB
	now func() time.Time
}

func NewMySQLProductRepo(db *sql.DB) *MySQLProductRepo {
	return &MySQLProductRepo{DB: db, now: time.Now}
}

func scanProduct(row interface{ Scan(...any) error }) (model.Product, error) {
	var (
		p  model.Product
		id uint64
	)
	err := row.Scan(&id, &p.Title, &p.Description, &p.Price, &p.Color, &p.Dimensions,
		&p.Type, &p.ImageURL, &p.OwnerUsername, &p.CreatedAt, &p.UpdatedAt)
	p.ID = strconv.FormatUint(id, 10)
	return p, err
}

func (r *MySQLProductRepo) Insert(ctx context.Context, p *model.Product) (*model.Product, error) {
	now := r.now().UTC().Truncate(time.Second)
	out := *p
	out.CreatedAt, out.UpdatedAt = now, now
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO products (title,description,price,color,dimensions,type,image_url,owner_username,created_at,updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		out.Title, out.Description, out.Price, out.Color, out.Dimensions, out.Type,
		out.ImageURL, out.OwnerUsername, now, now)
	if err != nil {
		return nil, errors.Wrap(err, "insert product")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "insert product: last id")
	}
	out.ID = strconv.FormatInt(id, 10)
	return &out, nil
}

func (r *MySQLProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	nid, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}
	p, err := scanProduct(r.DB.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id=? LIMIT 1", nid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find product")
	}
	return &p, nil
}

// List returns products matching f, newest first.
func (r *MySQLProductRepo) List(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		where = append(where, "type=?")
		args = append(args, f.Type)
	}
	if f.Owner != "" {
		where = append(where, "owner_username=?")
		args = append(args, f.Owner)
	}
	q := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	defer rows.Close()

	out := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		out = append(out, p)
	}
	return out, errors.Wrap(rows.Err(), "iterate products")
}

func (r *MySQLProductRepo) UpdateFields(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	if patch.Empty() {
		return nil, ErrEmptyPatch
	}
	nid, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}

	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+"=?")
		args = append(args, v)
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.Color != nil {
		add("color", *patch.Color)
	}
	if patch.Dimensions != nil {
		add("dimensions", *patch.Dimensions)
	}
	if patch.Type != nil {
		add("type", *patch.Type)
	}
	if patch.ImageURL != nil {
		add("image_url", *patch.ImageURL)
	}
	add("updated_at", r.now().UTC().Truncate(time.Second))
	args = append(args, nid)

	if _, err := r.DB.ExecContext(ctx,
		"UPDATE products SET "+strings.Join(sets, ",")+" WHERE id=?", args...); err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	return r.FindByID(ctx, id)
}
