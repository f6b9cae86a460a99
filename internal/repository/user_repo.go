package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"catlog/internal/domain"
)

// userSummaryColumns and userSummaryJoin are the single source of the
// derived trust flag. Every query that serializes a user identity for
// external consumers embeds these fragments so the flag is computed
// identically everywhere.
const (
	userSummaryColumns = `u.id, u.username, COALESCE(u.profile_image, ''), COALESCE(vp.verified, false)`
	userSummaryJoin    = `LEFT JOIN vet_professionals vp ON vp.user_id = u.id`
)

func scanUserSummary(row pgx.Row) (domain.UserSummary, error) {
	var s domain.UserSummary
	err := row.Scan(&s.ID, &s.Username, &s.ProfileImage, &s.Verified)
	return s, err
}

// UserRepository defines the persistence contract for users.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user domain.User) error
	SetProfessionalFlag(ctx context.Context, id string, professional bool) error
	GetSummary(ctx context.Context, id string) (domain.UserSummary, error)
}

// PgUserRepository implements UserRepository using pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, COALESCE(first_name, ''), COALESCE(last_name, ''),
	COALESCE(bio, ''), COALESCE(profile_image, ''), date_of_birth, vet_professional, created_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Bio,
		&u.ProfileImage,
		&u.DateOfBirth,
		&u.VetProfessional,
		&u.CreatedAt,
	)
	return u, err
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, username, email, password_hash, first_name, last_name, bio, profile_image, date_of_birth, vet_professional, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Bio,
		user.ProfileImage,
		user.DateOfBirth,
		user.VetProfessional,
		user.CreatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.pool.QueryRow(ctx, query, username))
}

func (r *PgUserRepository) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PgUserRepository) Update(ctx context.Context, user domain.User) error {
	const query = `
		UPDATE users
		SET username = $2, email = $3, first_name = $4, last_name = $5,
		    bio = $6, profile_image = $7, date_of_birth = $8
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Bio,
		user.ProfileImage,
		user.DateOfBirth,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) SetProfessionalFlag(ctx context.Context, id string, professional bool) error {
	const query = `UPDATE users SET vet_professional = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, professional)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) GetSummary(ctx context.Context, id string) (domain.UserSummary, error) {
	query := `
		SELECT ` + userSummaryColumns + `
		FROM users u ` + userSummaryJoin + `
		WHERE u.id = $1
	`
	s, err := scanUserSummary(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserSummary{}, err
	}
	return s, err
}
