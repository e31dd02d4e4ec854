package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/swiss-tournament/models"
)

var (
	ErrOrganizerNotFound      = errors.New("organizer not found")
	ErrOrganizerEmailConflict = errors.New("organizer email conflict")
)

type OrganizerRepository interface {
	Create(ctx context.Context, organizer *models.Organizer) error
	GetByID(ctx context.Context, id int) (*models.Organizer, error)
	GetByEmail(ctx context.Context, email string) (*models.Organizer, error)
}

type postgresOrganizerRepository struct {
	db *sql.DB
}

func NewPostgresOrganizerRepository(db *sql.DB) OrganizerRepository {
	return &postgresOrganizerRepository{db: db}
}

func (r *postgresOrganizerRepository) Create(ctx context.Context, o *models.Organizer) error {
	query := `
		INSERT INTO organizers (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, o.Email, o.PasswordHash).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		if pqErr, ok := asPQError(err); ok && pqErr.Code == pqUniqueViolation && pqErr.Constraint == "organizers_email_key" {
			return ErrOrganizerEmailConflict
		}
		return err
	}
	return nil
}

func (r *postgresOrganizerRepository) GetByID(ctx context.Context, id int) (*models.Organizer, error) {
	query := `SELECT id, email, password_hash, created_at FROM organizers WHERE id = $1`
	return r.scan(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresOrganizerRepository) GetByEmail(ctx context.Context, email string) (*models.Organizer, error) {
	query := `SELECT id, email, password_hash, created_at FROM organizers WHERE email = $1`
	return r.scan(r.db.QueryRowContext(ctx, query, email))
}

func (r *postgresOrganizerRepository) scan(row *sql.Row) (*models.Organizer, error) {
	o := &models.Organizer{}
	if err := row.Scan(&o.ID, &o.Email, &o.PasswordHash, &o.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrganizerNotFound
		}
		return nil, err
	}
	return o, nil
}
