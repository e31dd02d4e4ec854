package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/swiss-tournament/models"
)

var (
	ErrTournamentNotFound    = errors.New("tournament not found")
	ErrTournamentInvalidData = errors.New("tournament data violates a constraint")
	ErrAlreadyEnrolled       = errors.New("player is already enrolled in this tournament")
	ErrEnrollmentInvalid     = errors.New("invalid player or tournament reference")
	ErrEnrollmentNotFound    = errors.New("player is not enrolled in this tournament")
)

type ListTournamentsFilter struct {
	Status *models.TournamentStatus
	Limit  int
	Offset int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	// IncrementRoundsPaired bumps the round counter and returns the new value.
	IncrementRoundsPaired(ctx context.Context, exec SQLExecutor, id int) (int, error)
	SetWinner(ctx context.Context, exec SQLExecutor, id int, winnerPlayerID *int) error
	SetArchiveKey(ctx context.Context, id int, key string) error
	ListUnarchivedCompleted(ctx context.Context, limit int) ([]*models.Tournament, error)

	Enroll(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) error
	Unenroll(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) error
	IsEnrolled(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) (bool, error)
	CountPlayers(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	ListPlayers(ctx context.Context, tournamentID int) ([]models.Player, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	return executorOr(exec, r.db)
}

const tournamentColumns = `id, capacity, status, rounds_paired, winner_player_id, archive_key, created_at`

func scanTournament(row interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(&t.ID, &t.Capacity, &t.Status, &t.RoundsPaired, &t.WinnerPlayerID, &t.ArchiveKey, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	if t.Status == "" {
		t.Status = models.StatusRegistration
	}
	query := `
		INSERT INTO tournaments (capacity, status)
		VALUES ($1, $2)
		RETURNING id, rounds_paired, created_at`

	err := r.db.QueryRowContext(ctx, query, t.Capacity, t.Status).Scan(&t.ID, &t.RoundsPaired, &t.CreatedAt)
	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, *t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) IncrementRoundsPaired(ctx context.Context, exec SQLExecutor, id int) (int, error) {
	query := `UPDATE tournaments SET rounds_paired = rounds_paired + 1 WHERE id = $1 RETURNING rounds_paired`
	var round int
	err := r.getExecutor(exec).QueryRowContext(ctx, query, id).Scan(&round)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTournamentNotFound
		}
		return 0, err
	}
	return round, nil
}

func (r *postgresTournamentRepository) SetWinner(ctx context.Context, exec SQLExecutor, id int, winnerPlayerID *int) error {
	query := `UPDATE tournaments SET winner_player_id = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, winnerPlayerID, id)
	if err != nil {
		return fmt.Errorf("failed to set winner for tournament %d: %w", id, r.handleTournamentError(err))
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetArchiveKey(ctx context.Context, id int, key string) error {
	query := `UPDATE tournaments SET archive_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, key, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament archive key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ListUnarchivedCompleted(ctx context.Context, limit int) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE status = $1 AND archive_key IS NULL
		ORDER BY id ASC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, models.StatusCompleted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) Enroll(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) error {
	query := `INSERT INTO tournament_players (tournament_id, player_id) VALUES ($1, $2)`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, playerID)
	if err != nil {
		if pqErr, ok := asPQError(err); ok {
			switch pqErr.Code {
			case pqUniqueViolation:
				return ErrAlreadyEnrolled
			case pqForeignKeyViolation:
				return ErrEnrollmentInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresTournamentRepository) Unenroll(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) error {
	query := `DELETE FROM tournament_players WHERE tournament_id = $1 AND player_id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, playerID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEnrollmentNotFound)
}

func (r *postgresTournamentRepository) IsEnrolled(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM tournament_players WHERE tournament_id = $1 AND player_id = $2)`
	var ok bool
	err := r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, playerID).Scan(&ok)
	return ok, err
}

func (r *postgresTournamentRepository) CountPlayers(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	query := `SELECT COUNT(*) FROM tournament_players WHERE tournament_id = $1`
	var n int
	err := r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID).Scan(&n)
	return n, err
}

func (r *postgresTournamentRepository) ListPlayers(ctx context.Context, tournamentID int) ([]models.Player, error) {
	query := `
		SELECT p.id, p.name, p.created_at
		FROM tournament_players tp
		JOIN players p ON p.id = tp.player_id
		WHERE tp.tournament_id = $1
		ORDER BY p.id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		switch pqErr.Code {
		case pqCheckViolation, pqForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrTournamentInvalidData, pqErr.Constraint)
		}
	}
	return err
}
