package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/swiss-tournament/brackets"
	"github.com/Dosada05/swiss-tournament/models"
	"github.com/Dosada05/swiss-tournament/repositories"
	"github.com/Dosada05/swiss-tournament/storage"
)

type CreateTournamentInput struct {
	Capacity int `json:"capacity"`
}

type ListTournamentsInput struct {
	Status *models.TournamentStatus
	Limit  int
	Offset int
}

// CompletionResult is the outcome of closing a tournament. Winner is nil
// when nobody is ahead even after the OMW tiebreak.
type CompletionResult struct {
	Tournament *models.Tournament   `json:"tournament"`
	Standings  []models.StandingRow `json:"standings"`
	Winner     *brackets.Winner     `json:"winner"`
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, input ListTournamentsInput) ([]models.Tournament, error)

	Enroll(ctx context.Context, tournamentID, playerID int) error
	Unenroll(ctx context.Context, tournamentID, playerID int) error
	ListPlayers(ctx context.Context, tournamentID int) ([]models.Player, error)

	Standings(ctx context.Context, tournamentID int, withOMW bool) ([]models.StandingRow, error)
	Complete(ctx context.Context, tournamentID int) (*CompletionResult, error)
	Cancel(ctx context.Context, tournamentID int) (*models.Tournament, error)
}

type tournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	standingRepo   repositories.StandingRepository
	pairingRepo    repositories.PairingRepository
	archiver       ArchiveService
	uploader       storage.FileUploader
	locks          *TournamentLocks
	notifier       Notifier
	logger         *slog.Logger
}

// NewTournamentService builds the service. archiver and uploader may be nil
// when archiving is not configured.
func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	standingRepo repositories.StandingRepository,
	pairingRepo repositories.PairingRepository,
	archiver ArchiveService,
	uploader storage.FileUploader,
	locks *TournamentLocks,
	notifier Notifier,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		standingRepo:   standingRepo,
		pairingRepo:    pairingRepo,
		archiver:       archiver,
		uploader:       uploader,
		locks:          locks,
		notifier:       notifier,
		logger:         logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Capacity < 2 {
		return nil, fmt.Errorf("%w: got %d, need at least 2", ErrTournamentInvalidCapacity, input.Capacity)
	}
	t := &models.Tournament{Capacity: input.Capacity, Status: models.StatusRegistration}
	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	s.logger.InfoContext(ctx, "tournament created", slog.Int("tournament_id", t.ID), slog.Int("capacity", t.Capacity))
	return t, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := getTournament(ctx, s.tournamentRepo, nil, id)
	if err != nil {
		return nil, err
	}
	count, err := s.tournamentRepo.CountPlayers(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count players of tournament %d: %w", id, err)
	}
	t.PlayerCount = count
	if count > 0 {
		t.RoundsRequired, _ = brackets.RoundsRequired(count)
	}
	populateArchiveURL(t, s.uploader)
	return t, nil
}

func (s *tournamentService) List(ctx context.Context, input ListTournamentsInput) ([]models.Tournament, error) {
	limit := input.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	list, err := s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{
		Status: input.Status,
		Limit:  limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for i := range list {
		populateArchiveURL(&list[i], s.uploader)
	}
	return list, nil
}

func (s *tournamentService) Enroll(ctx context.Context, tournamentID, playerID int) error {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	t, err := getTournament(ctx, s.tournamentRepo, nil, tournamentID)
	if err != nil {
		return err
	}
	if t.Status != models.StatusRegistration {
		return fmt.Errorf("%w: status is %s", ErrRegistrationNotOpen, t.Status)
	}
	if _, err := s.playerRepo.GetByID(ctx, playerID); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("failed to load player %d: %w", playerID, err)
	}

	count, err := s.tournamentRepo.CountPlayers(ctx, nil, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to count players of tournament %d: %w", tournamentID, err)
	}
	if count >= t.Capacity {
		return fmt.Errorf("%w: capacity %d", ErrTournamentFull, t.Capacity)
	}

	if err := s.tournamentRepo.Enroll(ctx, nil, tournamentID, playerID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrAlreadyEnrolled):
			return ErrAlreadyEnrolled
		case errors.Is(err, repositories.ErrEnrollmentInvalid):
			return ErrPlayerNotFound
		}
		return fmt.Errorf("failed to enroll player %d: %w", playerID, err)
	}
	s.logger.InfoContext(ctx, "player enrolled", slog.Int("tournament_id", tournamentID), slog.Int("player_id", playerID))
	return nil
}

// Unenroll is only allowed before the first round; afterwards the player's
// results are part of other players' standings.
func (s *tournamentService) Unenroll(ctx context.Context, tournamentID, playerID int) error {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	t, err := getTournament(ctx, s.tournamentRepo, nil, tournamentID)
	if err != nil {
		return err
	}
	if t.Status != models.StatusRegistration {
		return fmt.Errorf("%w: status is %s", ErrRegistrationNotOpen, t.Status)
	}
	if err := s.tournamentRepo.Unenroll(ctx, nil, tournamentID, playerID); err != nil {
		if errors.Is(err, repositories.ErrEnrollmentNotFound) {
			return ErrPlayerNotEnrolled
		}
		return fmt.Errorf("failed to unenroll player %d: %w", playerID, err)
	}
	return nil
}

func (s *tournamentService) ListPlayers(ctx context.Context, tournamentID int) ([]models.Player, error) {
	if _, err := getTournament(ctx, s.tournamentRepo, nil, tournamentID); err != nil {
		return nil, err
	}
	players, err := s.tournamentRepo.ListPlayers(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players of tournament %d: %w", tournamentID, err)
	}
	return players, nil
}

func (s *tournamentService) Standings(ctx context.Context, tournamentID int, withOMW bool) ([]models.StandingRow, error) {
	if _, err := getTournament(ctx, s.tournamentRepo, nil, tournamentID); err != nil {
		return nil, err
	}
	rows, err := s.standingRepo.ListByTournament(ctx, nil, tournamentID, withOMW)
	if err != nil {
		return nil, fmt.Errorf("failed to load standings of tournament %d: %w", tournamentID, err)
	}
	if withOMW {
		rows = brackets.RankStandings(rows)
	}
	return rows, nil
}

// Complete closes an active tournament once every pairing of the last round
// has a result, and records the winner if there is one.
func (s *tournamentService) Complete(ctx context.Context, tournamentID int) (*CompletionResult, error) {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	t, err := getTournament(ctx, s.tournamentRepo, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	if !isValidStatusTransition(t.Status, models.StatusCompleted) || t.Status == models.StatusCompleted {
		return nil, fmt.Errorf("%w: %s to %s", ErrTournamentInvalidStatusTransition, t.Status, models.StatusCompleted)
	}
	if t.RoundsPaired == 0 {
		return nil, ErrNoRoundsPaired
	}
	open, err := s.pairingRepo.CountUnreported(ctx, nil, tournamentID, t.RoundsPaired)
	if err != nil {
		return nil, fmt.Errorf("failed to count unreported pairings: %w", err)
	}
	if open > 0 {
		return nil, fmt.Errorf("%w: %d of round %d", ErrRoundInProgress, open, t.RoundsPaired)
	}

	rows, err := s.standingRepo.ListByTournament(ctx, nil, tournamentID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load final standings: %w", err)
	}
	rows = brackets.RankStandings(rows)

	winner, err := brackets.DecideWinner(rows)
	if err != nil && !errors.Is(err, brackets.ErrNoWinner) {
		return nil, err
	}
	var winnerID *int
	if winner != nil {
		id := winner.Player.ID
		winnerID = &id
	}

	err = withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := s.tournamentRepo.SetWinner(ctx, tx, tournamentID, winnerID); err != nil {
			return err
		}
		return s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.StatusCompleted)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete tournament %d: %w", tournamentID, err)
	}
	t.Status = models.StatusCompleted
	t.WinnerPlayerID = winnerID

	if winner != nil {
		s.logger.InfoContext(ctx, "tournament completed",
			slog.Int("tournament_id", tournamentID),
			slog.Int("winner_id", winner.Player.ID),
			slog.Bool("by_tiebreak", winner.ByTiebreak))
	} else {
		s.logger.InfoContext(ctx, "tournament completed without a winner by tiebreak", slog.Int("tournament_id", tournamentID))
	}

	if s.archiver != nil {
		if err := s.archiver.ArchiveTournament(ctx, t); err != nil {
			s.logger.WarnContext(ctx, "archive failed, will retry", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		} else {
			populateArchiveURL(t, s.uploader)
		}
	}

	result := &CompletionResult{Tournament: t, Standings: rows, Winner: winner}
	notify(s.notifier, tournamentID, brackets.MessageTournamentCompleted, result)
	return result, nil
}

func (s *tournamentService) Cancel(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	t, err := getTournament(ctx, s.tournamentRepo, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Status == models.StatusCanceled || !isValidStatusTransition(t.Status, models.StatusCanceled) {
		return nil, fmt.Errorf("%w: %s to %s", ErrTournamentInvalidStatusTransition, t.Status, models.StatusCanceled)
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, nil, tournamentID, models.StatusCanceled); err != nil {
		return nil, fmt.Errorf("failed to cancel tournament %d: %w", tournamentID, err)
	}
	t.Status = models.StatusCanceled
	return t, nil
}
