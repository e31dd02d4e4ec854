package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/swiss-tournament/models"
)

var (
	ErrByeAlreadyRecorded = errors.New("player already received a bye in this tournament")
	ErrByeInvalidRef      = errors.New("invalid tournament or player reference")
)

type ByeRepository interface {
	Create(ctx context.Context, exec SQLExecutor, bye *models.Bye) error
	ListPlayerIDs(ctx context.Context, exec SQLExecutor, tournamentID int) ([]int, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Bye, error)
	// GetByRound returns nil when nobody sat out the round.
	GetByRound(ctx context.Context, exec SQLExecutor, tournamentID, round int) (*models.PlayerRef, error)
}

type postgresByeRepository struct {
	db *sql.DB
}

func NewPostgresByeRepository(db *sql.DB) ByeRepository {
	return &postgresByeRepository{db: db}
}

func (r *postgresByeRepository) Create(ctx context.Context, exec SQLExecutor, b *models.Bye) error {
	query := `
		INSERT INTO byes (tournament_id, player_id, round)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := executorOr(exec, r.db).QueryRowContext(ctx, query, b.TournamentID, b.PlayerID, b.Round).
		Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		if pqErr, ok := asPQError(err); ok {
			switch pqErr.Code {
			case pqUniqueViolation:
				if pqErr.Constraint == "byes_tournament_id_player_id_key" {
					return ErrByeAlreadyRecorded
				}
			case pqForeignKeyViolation:
				return ErrByeInvalidRef
			}
		}
		return err
	}
	return nil
}

func (r *postgresByeRepository) ListPlayerIDs(ctx context.Context, exec SQLExecutor, tournamentID int) ([]int, error) {
	rows, err := executorOr(exec, r.db).QueryContext(ctx, `SELECT player_id FROM byes WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresByeRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Bye, error) {
	query := `
		SELECT id, tournament_id, player_id, round, created_at
		FROM byes
		WHERE tournament_id = $1
		ORDER BY round ASC`

	rows, err := executorOr(exec, r.db).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byes := make([]*models.Bye, 0)
	for rows.Next() {
		b := &models.Bye{}
		if err := rows.Scan(&b.ID, &b.TournamentID, &b.PlayerID, &b.Round, &b.CreatedAt); err != nil {
			return nil, err
		}
		byes = append(byes, b)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return byes, nil
}

func (r *postgresByeRepository) GetByRound(ctx context.Context, exec SQLExecutor, tournamentID, round int) (*models.PlayerRef, error) {
	query := `
		SELECT p.id, p.name
		FROM byes b
		JOIN players p ON p.id = b.player_id
		WHERE b.tournament_id = $1 AND b.round = $2`

	ref := &models.PlayerRef{}
	err := executorOr(exec, r.db).QueryRowContext(ctx, query, tournamentID, round).Scan(&ref.ID, &ref.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return ref, nil
}
