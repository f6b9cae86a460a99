package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"catlog/internal/domain"
)

type OfferRepository interface {
	Create(ctx context.Context, offer domain.Offer) error
	ListByItem(ctx context.Context, itemID string) ([]domain.Offer, error)
}

type PgOfferRepository struct {
	pool *pgxpool.Pool
}

func NewPgOfferRepository(pool *pgxpool.Pool) *PgOfferRepository {
	return &PgOfferRepository{pool: pool}
}

func (r *PgOfferRepository) Create(ctx context.Context, offer domain.Offer) error {
	const query = `
		INSERT INTO offers (id, item_id, buyer_id, amount, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		offer.ID,
		offer.ItemID,
		offer.BuyerID,
		offer.Amount,
		offer.Message,
		offer.Status,
		offer.CreatedAt,
		offer.UpdatedAt,
	)
	return err
}

func (r *PgOfferRepository) ListByItem(ctx context.Context, itemID string) ([]domain.Offer, error) {
	const query = `
		SELECT id, item_id, buyer_id, amount::text, COALESCE(message, ''), status, created_at, updated_at
		FROM offers
		WHERE item_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []domain.Offer
	for rows.Next() {
		var o domain.Offer
		if err := rows.Scan(
			&o.ID,
			&o.ItemID,
			&o.BuyerID,
			&o.Amount,
			&o.Message,
			&o.Status,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}
