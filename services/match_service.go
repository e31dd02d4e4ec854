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
)

type ReportMatchInput struct {
	WinnerID int `json:"winner_id"`
	LoserID  int `json:"loser_id"`
}

type MatchService interface {
	// ReportMatch records the result of a pairing of the current round.
	ReportMatch(ctx context.Context, tournamentID int, input ReportMatchInput) (*models.Match, error)
	ListMatches(ctx context.Context, tournamentID int) ([]*models.Match, error)
	ListByes(ctx context.Context, tournamentID int) ([]*models.Bye, error)
}

type matchService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	byeRepo        repositories.ByeRepository
	pairingRepo    repositories.PairingRepository
	locks          *TournamentLocks
	notifier       Notifier
	logger         *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	byeRepo repositories.ByeRepository,
	pairingRepo repositories.PairingRepository,
	locks *TournamentLocks,
	notifier Notifier,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:             db,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		byeRepo:        byeRepo,
		pairingRepo:    pairingRepo,
		locks:          locks,
		notifier:       notifier,
		logger:         logger,
	}
}

func (s *matchService) ReportMatch(ctx context.Context, tournamentID int, input ReportMatchInput) (*models.Match, error) {
	if input.WinnerID <= 0 || input.LoserID <= 0 {
		return nil, fmt.Errorf("%w: winner_id and loser_id are required", ErrValidationFailed)
	}
	if input.WinnerID == input.LoserID {
		return nil, ErrSelfMatch
	}

	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	t, err := getTournament(ctx, s.tournamentRepo, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Status != models.StatusActive {
		return nil, fmt.Errorf("%w: status is %s", ErrTournamentNotActive, t.Status)
	}

	match := &models.Match{
		TournamentID: tournamentID,
		WinnerID:     input.WinnerID,
		LoserID:      input.LoserID,
		Round:        t.RoundsPaired,
	}
	err = withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := s.matchRepo.Create(ctx, tx, match); err != nil {
			switch {
			case errors.Is(err, repositories.ErrMatchSelfPlay):
				return ErrSelfMatch
			case errors.Is(err, repositories.ErrMatchInvalidReference):
				return ErrPlayerNotFound
			}
			return fmt.Errorf("failed to store match: %w", err)
		}
		if err := s.pairingRepo.AttachMatch(ctx, tx, tournamentID, match.Round, match.WinnerID, match.LoserID, match.ID); err != nil {
			if errors.Is(err, repositories.ErrPairingNotFound) {
				return fmt.Errorf("%w: players %d and %d, round %d", ErrMatchNotPaired, match.WinnerID, match.LoserID, match.Round)
			}
			return fmt.Errorf("failed to link match to pairing: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "match reported",
		slog.Int("tournament_id", tournamentID),
		slog.Int("round", match.Round),
		slog.Int("winner_id", match.WinnerID),
		slog.Int("loser_id", match.LoserID))
	notify(s.notifier, tournamentID, brackets.MessageMatchReported, match)
	return match, nil
}

func (s *matchService) ListMatches(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	if _, err := getTournament(ctx, s.tournamentRepo, nil, tournamentID); err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of tournament %d: %w", tournamentID, err)
	}
	return matches, nil
}

func (s *matchService) ListByes(ctx context.Context, tournamentID int) ([]*models.Bye, error) {
	if _, err := getTournament(ctx, s.tournamentRepo, nil, tournamentID); err != nil {
		return nil, err
	}
	byes, err := s.byeRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list byes of tournament %d: %w", tournamentID, err)
	}
	return byes, nil
}
