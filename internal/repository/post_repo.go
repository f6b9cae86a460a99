package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"catlog/internal/domain"
)

type PostRepository interface {
	Create(ctx context.Context, post domain.Post) error
	Update(ctx context.Context, post domain.Post) error
	Delete(ctx context.Context, id, authorID string) error
	GetByID(ctx context.Context, id string) (domain.Post, error)
	ListAll(ctx context.Context) ([]domain.Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]domain.Post, error)
	ListFollowing(ctx context.Context, followerID string) ([]domain.Post, error)
	Search(ctx context.Context, words []string) ([]domain.Post, error)
}

type PgPostRepository struct {
	pool *pgxpool.Pool
}

func NewPgPostRepository(pool *pgxpool.Pool) *PgPostRepository {
	return &PgPostRepository{pool: pool}
}

const postColumns = `id, author_id, title, content, COALESCE(media, ''), created_at, updated_at`

func scanPost(row pgx.Row) (domain.Post, error) {
	var p domain.Post
	err := row.Scan(
		&p.ID,
		&p.AuthorID,
		&p.Title,
		&p.Content,
		&p.Media,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func collectPosts(rows pgx.Rows) ([]domain.Post, error) {
	defer rows.Close()
	var posts []domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *PgPostRepository) Create(ctx context.Context, post domain.Post) error {
	const query = `
		INSERT INTO posts (id, author_id, title, content, media, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		post.ID,
		post.AuthorID,
		post.Title,
		post.Content,
		post.Media,
		post.CreatedAt,
		post.UpdatedAt,
	)
	return err
}

func (r *PgPostRepository) Update(ctx context.Context, post domain.Post) error {
	const query = `
		UPDATE posts
		SET title = $3, content = $4, media = $5, updated_at = $6
		WHERE id = $1 AND author_id = $2
	`
	tag, err := r.pool.Exec(ctx, query,
		post.ID,
		post.AuthorID,
		post.Title,
		post.Content,
		post.Media,
		post.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a post only when authorID owns it.
func (r *PgPostRepository) Delete(ctx context.Context, id, authorID string) error {
	const query = `DELETE FROM posts WHERE id = $1 AND author_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, authorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgPostRepository) GetByID(ctx context.Context, id string) (domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	p, err := scanPost(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Post{}, err
	}
	return p, err
}

func (r *PgPostRepository) ListAll(ctx context.Context) ([]domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func (r *PgPostRepository) ListByAuthor(ctx context.Context, authorID string) ([]domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE author_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, authorID)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

// ListFollowing returns the feed: posts authored by users the follower
// follows, newest first.
func (r *PgPostRepository) ListFollowing(ctx context.Context, followerID string) ([]domain.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE author_id IN (SELECT followee_id FROM follows WHERE follower_id = $1)
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, followerID)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

// Search matches any word against title, content or comment text, and
// orders by professional verify count, then like count, both descending.
func (r *PgPostRepository) Search(ctx context.Context, words []string) ([]domain.Post, error) {
	if len(words) == 0 {
		return nil, nil
	}
	query := `
		SELECT p.id, p.author_id, p.title, p.content, COALESCE(p.media, ''), p.created_at, p.updated_at
		FROM posts p
		WHERE EXISTS (
			SELECT 1 FROM unnest($1::text[]) AS w(word)
			WHERE p.title ILIKE '%' || w.word || '%'
			   OR p.content ILIKE '%' || w.word || '%'
			   OR EXISTS (
				SELECT 1 FROM comments c
				WHERE c.post_id = p.id AND c.text ILIKE '%' || w.word || '%'
			   )
		)
		ORDER BY
			(SELECT COUNT(*) FROM post_verifies v WHERE v.post_id = p.id) DESC,
			(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) DESC
	`
	rows, err := r.pool.Query(ctx, query, words)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}
