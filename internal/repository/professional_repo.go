package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"catlog/internal/domain"
)

// Confirmation outcomes that the service layer maps to user-visible
// errors. Kept distinct so an expired code tells the user to request a
// reissue instead of retrying.
var (
	ErrCodeMismatch = errors.New("verification code mismatch")
	ErrCodeExpired  = errors.New("verification code expired")
)

// ProfessionalRepository defines the persistence contract for professional
// credential records. ConfirmCode must serialize concurrent attempts on
// the same record.
type ProfessionalRepository interface {
	Upsert(ctx context.Context, p domain.VetProfessional) error
	GetByUserID(ctx context.Context, userID string) (domain.VetProfessional, error)
	DeleteByUserID(ctx context.Context, userID string) error
	SetCode(ctx context.Context, userID, code string, expiresAt time.Time) error
	ConfirmCode(ctx context.Context, userID, code string, now time.Time) error
}

// PgProfessionalRepository implements ProfessionalRepository using pgxpool.
type PgProfessionalRepository struct {
	pool *pgxpool.Pool
}

func NewPgProfessionalRepository(pool *pgxpool.Pool) *PgProfessionalRepository {
	return &PgProfessionalRepository{pool: pool}
}

func (r *PgProfessionalRepository) Upsert(ctx context.Context, p domain.VetProfessional) error {
	const query = `
		INSERT INTO vet_professionals (id, user_id, reference_number, rcvs_email, registration_date, location, field_of_work, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			reference_number = EXCLUDED.reference_number,
			rcvs_email = EXCLUDED.rcvs_email,
			registration_date = EXCLUDED.registration_date,
			location = EXCLUDED.location,
			field_of_work = EXCLUDED.field_of_work
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.UserID,
		p.ReferenceNumber,
		p.RCVSEmail,
		p.RegistrationDate,
		p.Location,
		p.FieldOfWork,
		p.Verified,
		p.CreatedAt,
	)
	return err
}

func (r *PgProfessionalRepository) GetByUserID(ctx context.Context, userID string) (domain.VetProfessional, error) {
	const query = `
		SELECT id, user_id, reference_number, COALESCE(rcvs_email, ''), registration_date,
		       COALESCE(location, ''), COALESCE(field_of_work, ''), verified,
		       COALESCE(verification_code, ''), verification_code_expires, created_at
		FROM vet_professionals
		WHERE user_id = $1
	`
	var p domain.VetProfessional
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.ID,
		&p.UserID,
		&p.ReferenceNumber,
		&p.RCVSEmail,
		&p.RegistrationDate,
		&p.Location,
		&p.FieldOfWork,
		&p.Verified,
		&p.VerificationCode,
		&p.VerificationCodeExpires,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.VetProfessional{}, err
	}
	return p, err
}

func (r *PgProfessionalRepository) DeleteByUserID(ctx context.Context, userID string) error {
	const query = `DELETE FROM vet_professionals WHERE user_id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

// SetCode overwrites any prior code/expiry pair in one statement, so a
// reissue can never leave the pair half-written.
func (r *PgProfessionalRepository) SetCode(ctx context.Context, userID, code string, expiresAt time.Time) error {
	const query = `
		UPDATE vet_professionals
		SET verification_code = $2, verification_code_expires = $3
		WHERE user_id = $1
	`
	tag, err := r.pool.Exec(ctx, query, userID, code, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ConfirmCode runs the read-check-write of a confirmation inside one
// transaction with the credential row locked, so two rapid confirms, or a
// reissue racing a confirm, cannot interleave. On success the record is
// marked verified and the consumed code/expiry pair is cleared.
func (r *PgProfessionalRepository) ConfirmCode(ctx context.Context, userID, code string, now time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const selectQuery = `
		SELECT COALESCE(verification_code, ''), verification_code_expires
		FROM vet_professionals
		WHERE user_id = $1
		FOR UPDATE
	`
	var stored string
	var expires *time.Time
	if err := tx.QueryRow(ctx, selectQuery, userID).Scan(&stored, &expires); err != nil {
		return err
	}

	// Exact, case-sensitive match first; expiry is only reported for a
	// code the user actually holds.
	if stored == "" || stored != code {
		return ErrCodeMismatch
	}
	if expires == nil || !expires.After(now) {
		return ErrCodeExpired
	}

	const updateQuery = `
		UPDATE vet_professionals
		SET verified = TRUE, verification_code = NULL, verification_code_expires = NULL
		WHERE user_id = $1
	`
	if _, err := tx.Exec(ctx, updateQuery, userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
