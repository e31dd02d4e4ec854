package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/swiss-tournament/models"
)

var (
	ErrMatchSelfPlay         = errors.New("winner and loser must be different players")
	ErrMatchInvalidReference = errors.New("invalid tournament or player reference")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	query := `
		INSERT INTO matches (tournament_id, winner_id, loser_id, round)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := executorOr(exec, r.db).QueryRowContext(ctx, query, m.TournamentID, m.WinnerID, m.LoserID, m.Round).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if pqErr, ok := asPQError(err); ok {
			switch pqErr.Code {
			case pqCheckViolation:
				if pqErr.Constraint == "matches_distinct_players" {
					return ErrMatchSelfPlay
				}
				return fmt.Errorf("match violates %s: %w", pqErr.Constraint, err)
			case pqForeignKeyViolation:
				return ErrMatchInvalidReference
			}
		}
		return err
	}
	return nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error) {
	query := `
		SELECT id, tournament_id, winner_id, loser_id, round, created_at
		FROM matches
		WHERE tournament_id = $1
		ORDER BY round ASC, id ASC`

	rows, err := executorOr(exec, r.db).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m := &models.Match{}
		if err := rows.Scan(&m.ID, &m.TournamentID, &m.WinnerID, &m.LoserID, &m.Round, &m.CreatedAt); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	var n int
	err := executorOr(exec, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM matches WHERE tournament_id = $1`, tournamentID).Scan(&n)
	return n, err
}
