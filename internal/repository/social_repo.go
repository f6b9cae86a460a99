package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"catlog/internal/domain"
)

// SocialRepository covers the toggleable pair tables (likes, post
// verifies, saves, follows) and post reports. Toggle methods report
// whether the pair was created (true) or removed (false).
type SocialRepository interface {
	ToggleLike(ctx context.Context, postID, userID string) (bool, error)
	TogglePostVerify(ctx context.Context, postID, userID string) (bool, error)
	ToggleSave(ctx context.Context, itemID, userID string) (bool, error)
	ToggleFollow(ctx context.Context, followerID, followeeID string) (bool, error)
	ListLikers(ctx context.Context, postID string) ([]domain.UserSummary, error)
	ListVerifiers(ctx context.Context, postID string) ([]domain.UserSummary, error)
	ListSavers(ctx context.Context, itemID string) ([]domain.UserSummary, error)
	ListFollowers(ctx context.Context, userID string) ([]domain.UserSummary, error)
	ListFollowing(ctx context.Context, userID string) ([]domain.UserSummary, error)
	CreateReport(ctx context.Context, report domain.Report) error
}

type PgSocialRepository struct {
	pool *pgxpool.Pool
}

func NewPgSocialRepository(pool *pgxpool.Pool) *PgSocialRepository {
	return &PgSocialRepository{pool: pool}
}

func (r *PgSocialRepository) toggle(ctx context.Context, insertQuery, deleteQuery string, a, b string) (bool, error) {
	tag, err := r.pool.Exec(ctx, insertQuery, a, b, time.Now().UTC())
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	if _, err := r.pool.Exec(ctx, deleteQuery, a, b); err != nil {
		return false, err
	}
	return false, nil
}

func (r *PgSocialRepository) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	return r.toggle(ctx,
		`INSERT INTO likes (post_id, author_id, created_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		`DELETE FROM likes WHERE post_id = $1 AND author_id = $2`,
		postID, userID)
}

func (r *PgSocialRepository) TogglePostVerify(ctx context.Context, postID, userID string) (bool, error) {
	return r.toggle(ctx,
		`INSERT INTO post_verifies (post_id, author_id, created_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		`DELETE FROM post_verifies WHERE post_id = $1 AND author_id = $2`,
		postID, userID)
}

func (r *PgSocialRepository) ToggleSave(ctx context.Context, itemID, userID string) (bool, error) {
	return r.toggle(ctx,
		`INSERT INTO saved_items (item_id, user_id, saved_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		`DELETE FROM saved_items WHERE item_id = $1 AND user_id = $2`,
		itemID, userID)
}

func (r *PgSocialRepository) ToggleFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	return r.toggle(ctx,
		`INSERT INTO follows (follower_id, followee_id, created_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		`DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`,
		followerID, followeeID)
}

func (r *PgSocialRepository) listSummaries(ctx context.Context, query string, arg string) ([]domain.UserSummary, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.UserSummary
	for rows.Next() {
		s, err := scanUserSummary(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, s)
	}
	return users, rows.Err()
}

func (r *PgSocialRepository) ListLikers(ctx context.Context, postID string) ([]domain.UserSummary, error) {
	query := `
		SELECT ` + userSummaryColumns + `
		FROM likes l
		JOIN users u ON u.id = l.author_id ` + userSummaryJoin + `
		WHERE l.post_id = $1
		ORDER BY l.created_at
	`
	return r.listSummaries(ctx, query, postID)
}

func (r *PgSocialRepository) ListVerifiers(ctx context.Context, postID string) ([]domain.UserSummary, error) {
	query := `
		SELECT ` + userSummaryColumns + `
		FROM post_verifies v
		JOIN users u ON u.id = v.author_id ` + userSummaryJoin + `
		WHERE v.post_id = $1
		ORDER BY v.created_at
	`
	return r.listSummaries(ctx, query, postID)
}

func (r *PgSocialRepository) ListSavers(ctx context.Context, itemID string) ([]domain.UserSummary, error) {
	query := `
		SELECT ` + userSummaryColumns + `
		FROM saved_items s
		JOIN users u ON u.id = s.user_id ` + userSummaryJoin + `
		WHERE s.item_id = $1
		ORDER BY s.saved_at
	`
	return r.listSummaries(ctx, query, itemID)
}

func (r *PgSocialRepository) ListFollowers(ctx context.Context, userID string) ([]domain.UserSummary, error) {
	query := `
		SELECT ` + userSummaryColumns + `
		FROM follows f
		JOIN users u ON u.id = f.follower_id ` + userSummaryJoin + `
		WHERE f.followee_id = $1
		ORDER BY f.created_at
	`
	return r.listSummaries(ctx, query, userID)
}

func (r *PgSocialRepository) ListFollowing(ctx context.Context, userID string) ([]domain.UserSummary, error) {
	query := `
		SELECT ` + userSummaryColumns + `
		FROM follows f
		JOIN users u ON u.id = f.followee_id ` + userSummaryJoin + `
		WHERE f.follower_id = $1
		ORDER BY f.created_at
	`
	return r.listSummaries(ctx, query, userID)
}

func (r *PgSocialRepository) CreateReport(ctx context.Context, report domain.Report) error {
	const query = `
		INSERT INTO reports (id, post_id, reported_by, reason, reviewed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		report.ID,
		report.PostID,
		report.ReportedBy,
		report.Reason,
		report.Reviewed,
		report.CreatedAt,
	)
	return err
}
