package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/swiss-tournament/models"
)

var ErrPairingNotFound = errors.New("no unreported pairing of these players in the current round")

// PairingRepository stores the pairs produced for each round so reported
// results can be checked against them.
type PairingRepository interface {
	CreateRound(ctx context.Context, exec SQLExecutor, tournamentID, round int, pairs []models.Pair) error
	ListByRound(ctx context.Context, exec SQLExecutor, tournamentID, round int) ([]models.Pair, error)
	CountUnreported(ctx context.Context, exec SQLExecutor, tournamentID, round int) (int, error)
	// AttachMatch links matchID to the unreported pairing of the two players.
	AttachMatch(ctx context.Context, exec SQLExecutor, tournamentID, round, playerA, playerB, matchID int) error
}

type postgresPairingRepository struct {
	db *sql.DB
}

func NewPostgresPairingRepository(db *sql.DB) PairingRepository {
	return &postgresPairingRepository{db: db}
}

func (r *postgresPairingRepository) CreateRound(ctx context.Context, exec SQLExecutor, tournamentID, round int, pairs []models.Pair) error {
	executor := executorOr(exec, r.db)
	query := `
		INSERT INTO pairings (tournament_id, round, player1_id, player2_id, rematch)
		VALUES ($1, $2, $3, $4, $5)`
	for _, p := range pairs {
		if _, err := executor.ExecContext(ctx, query, tournamentID, round, p.Player1ID, p.Player2ID, p.Rematch); err != nil {
			if pqErr, ok := asPQError(err); ok && pqErr.Code == pqForeignKeyViolation {
				return ErrEnrollmentInvalid
			}
			return err
		}
	}
	return nil
}

func (r *postgresPairingRepository) ListByRound(ctx context.Context, exec SQLExecutor, tournamentID, round int) ([]models.Pair, error) {
	query := `
		SELECT pr.player1_id, p1.name, pr.player2_id, p2.name, pr.rematch, pr.match_id
		FROM pairings pr
		JOIN players p1 ON p1.id = pr.player1_id
		JOIN players p2 ON p2.id = pr.player2_id
		WHERE pr.tournament_id = $1 AND pr.round = $2
		ORDER BY pr.id ASC`

	rows, err := executorOr(exec, r.db).QueryContext(ctx, query, tournamentID, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pairs := make([]models.Pair, 0)
	for rows.Next() {
		var p models.Pair
		if err := rows.Scan(&p.Player1ID, &p.Player1Name, &p.Player2ID, &p.Player2Name, &p.Rematch, &p.MatchID); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return pairs, nil
}

func (r *postgresPairingRepository) CountUnreported(ctx context.Context, exec SQLExecutor, tournamentID, round int) (int, error) {
	query := `SELECT COUNT(*) FROM pairings WHERE tournament_id = $1 AND round = $2 AND match_id IS NULL`
	var n int
	err := executorOr(exec, r.db).QueryRowContext(ctx, query, tournamentID, round).Scan(&n)
	return n, err
}

func (r *postgresPairingRepository) AttachMatch(ctx context.Context, exec SQLExecutor, tournamentID, round, playerA, playerB, matchID int) error {
	query := `
		UPDATE pairings SET match_id = $1
		WHERE tournament_id = $2 AND round = $3 AND match_id IS NULL
		  AND ((player1_id = $4 AND player2_id = $5) OR (player1_id = $5 AND player2_id = $4))`
	result, err := executorOr(exec, r.db).ExecContext(ctx, query, matchID, tournamentID, round, playerA, playerB)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPairingNotFound)
}
