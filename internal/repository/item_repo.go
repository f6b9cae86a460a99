package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"catlog/internal/domain"
)

type ItemRepository interface {
	Create(ctx context.Context, item domain.Item) error
	Update(ctx context.Context, item domain.Item) error
	Delete(ctx context.Context, id, sellerID string) error
	GetByID(ctx context.Context, id string) (domain.Item, error)
	ListOpen(ctx context.Context) ([]domain.Item, error)
	ListBySeller(ctx context.Context, sellerID string) ([]domain.Item, error)
	ListSavedBy(ctx context.Context, userID string) ([]domain.Item, error)
	Search(ctx context.Context, words []string) ([]domain.Item, error)
}

type PgItemRepository struct {
	pool *pgxpool.Pool
}

func NewPgItemRepository(pool *pgxpool.Pool) *PgItemRepository {
	return &PgItemRepository{pool: pool}
}

const itemColumns = `id, seller_id, title, description, price::text, COALESCE(media, ''),
	COALESCE(location, ''), COALESCE(latitude::text, ''), COALESCE(longitude::text, ''),
	status, condition, created_at, updated_at`

func scanItem(row pgx.Row) (domain.Item, error) {
	var it domain.Item
	err := row.Scan(
		&it.ID,
		&it.SellerID,
		&it.Title,
		&it.Description,
		&it.Price,
		&it.Media,
		&it.Location,
		&it.Latitude,
		&it.Longitude,
		&it.Status,
		&it.Condition,
		&it.CreatedAt,
		&it.UpdatedAt,
	)
	return it, err
}

func collectItems(rows pgx.Rows) ([]domain.Item, error) {
	defer rows.Close()
	var items []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PgItemRepository) Create(ctx context.Context, item domain.Item) error {
	const query = `
		INSERT INTO items (id, seller_id, title, description, price, media, location, latitude, longitude, status, condition, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, NULLIF($8, '')::numeric, NULLIF($9, '')::numeric, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.SellerID,
		item.Title,
		item.Description,
		item.Price,
		item.Media,
		item.Location,
		item.Latitude,
		item.Longitude,
		item.Status,
		item.Condition,
		item.CreatedAt,
		item.UpdatedAt,
	)
	return err
}

func (r *PgItemRepository) Update(ctx context.Context, item domain.Item) error {
	const query = `
		UPDATE items
		SET title = $3, description = $4, price = $5::numeric, media = $6, location = $7,
		    latitude = NULLIF($8, '')::numeric, longitude = NULLIF($9, '')::numeric,
		    status = $10, condition = $11, updated_at = $12
		WHERE id = $1 AND seller_id = $2
	`
	tag, err := r.pool.Exec(ctx, query,
		item.ID,
		item.SellerID,
		item.Title,
		item.Description,
		item.Price,
		item.Media,
		item.Location,
		item.Latitude,
		item.Longitude,
		item.Status,
		item.Condition,
		item.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgItemRepository) Delete(ctx context.Context, id, sellerID string) error {
	const query = `DELETE FROM items WHERE id = $1 AND seller_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, sellerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgItemRepository) GetByID(ctx context.Context, id string) (domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	it, err := scanItem(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Item{}, err
	}
	return it, err
}

// ListOpen returns items still on the market (available or pending),
// most recently touched first.
func (r *PgItemRepository) ListOpen(ctx context.Context) ([]domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE status IN ($1, $2) ORDER BY updated_at DESC`
	rows, err := r.pool.Query(ctx, query, domain.ItemAvailable, domain.ItemPending)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

func (r *PgItemRepository) ListBySeller(ctx context.Context, sellerID string) ([]domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE seller_id = $1 ORDER BY updated_at DESC`
	rows, err := r.pool.Query(ctx, query, sellerID)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

func (r *PgItemRepository) ListSavedBy(ctx context.Context, userID string) ([]domain.Item, error) {
	query := `
		SELECT i.id, i.seller_id, i.title, i.description, i.price::text, COALESCE(i.media, ''),
		       COALESCE(i.location, ''), COALESCE(i.latitude::text, ''), COALESCE(i.longitude::text, ''),
		       i.status, i.condition, i.created_at, i.updated_at
		FROM saved_items s
		JOIN items i ON i.id = s.item_id
		WHERE s.user_id = $1
		ORDER BY s.saved_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

func (r *PgItemRepository) Search(ctx context.Context, words []string) ([]domain.Item, error) {
	if len(words) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE EXISTS (
			SELECT 1 FROM unnest($1::text[]) AS w(word)
			WHERE title ILIKE '%' || w.word || '%'
			   OR description ILIKE '%' || w.word || '%'
		)
		ORDER BY updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query, words)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}
