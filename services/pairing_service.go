package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/swiss-tournament/brackets"
	"github.com/Dosada05/swiss-tournament/models"
	"github.com/Dosada05/swiss-tournament/repositories"
)

type PairingService interface {
	// PairNextRound pairs and stores the next round of a tournament.
	PairNextRound(ctx context.Context, tournamentID int) (*models.PairingResult, error)
	GetRound(ctx context.Context, tournamentID, round int) (*models.PairingResult, error)
}

type pairingService struct {
	db             *sql.DB
	engine         brackets.RoundGenerator
	tournamentRepo repositories.TournamentRepository
	standingRepo   repositories.StandingRepository
	matchRepo      repositories.MatchRepository
	byeRepo        repositories.ByeRepository
	pairingRepo    repositories.PairingRepository
	locks          *TournamentLocks
	notifier       Notifier
	logger         *slog.Logger
}

func NewPairingService(
	db *sql.DB,
	engine brackets.RoundGenerator,
	tournamentRepo repositories.TournamentRepository,
	standingRepo repositories.StandingRepository,
	matchRepo repositories.MatchRepository,
	byeRepo repositories.ByeRepository,
	pairingRepo repositories.PairingRepository,
	locks *TournamentLocks,
	notifier Notifier,
	logger *slog.Logger,
) PairingService {
	return &pairingService{
		db:             db,
		engine:         engine,
		tournamentRepo: tournamentRepo,
		standingRepo:   standingRepo,
		matchRepo:      matchRepo,
		byeRepo:        byeRepo,
		pairingRepo:    pairingRepo,
		locks:          locks,
		notifier:       notifier,
		logger:         logger,
	}
}

func (s *pairingService) PairNextRound(ctx context.Context, tournamentID int) (*models.PairingResult, error) {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	t, err := getTournament(ctx, s.tournamentRepo, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Status != models.StatusRegistration && t.Status != models.StatusActive {
		return nil, fmt.Errorf("%w: status is %s", ErrTournamentNotActive, t.Status)
	}
	if t.RoundsPaired > 0 {
		open, err := s.pairingRepo.CountUnreported(ctx, nil, tournamentID, t.RoundsPaired)
		if err != nil {
			return nil, fmt.Errorf("failed to count unreported pairings: %w", err)
		}
		if open > 0 {
			return nil, fmt.Errorf("%w: %d of round %d", ErrRoundInProgress, open, t.RoundsPaired)
		}
	}

	snap, err := s.loadSnapshot(ctx, tournamentID, t.RoundsPaired+1)
	if err != nil {
		return nil, err
	}

	// Fewer than two players is reported by the engine itself.
	if len(snap.Standings) >= 2 {
		required, err := brackets.RoundsRequired(len(snap.Standings))
		if err != nil {
			return nil, fmt.Errorf("tournament %d: %w", tournamentID, err)
		}
		if t.RoundsPaired >= required {
			return nil, fmt.Errorf("%w: %d of %d", ErrAllRoundsPaired, t.RoundsPaired, required)
		}
	}

	result, err := s.engine.Pair(snap)
	if err != nil {
		if errors.Is(err, brackets.ErrPairingInvariantViolation) {
			s.logger.ErrorContext(ctx, "pairing invariant violated",
				slog.Int("tournament_id", tournamentID),
				slog.Int("round", snap.Round),
				slog.Any("error", err))
		}
		return nil, err
	}

	err = withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		round, err := s.tournamentRepo.IncrementRoundsPaired(ctx, tx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to advance round counter: %w", err)
		}
		if round != snap.Round {
			return fmt.Errorf("round counter moved from %d to %d while pairing", snap.Round-1, round)
		}
		if t.Status == models.StatusRegistration {
			if err := s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.StatusActive); err != nil {
				return fmt.Errorf("failed to activate tournament: %w", err)
			}
		}
		if err := s.pairingRepo.CreateRound(ctx, tx, tournamentID, round, result.Pairs); err != nil {
			return fmt.Errorf("failed to store pairings: %w", err)
		}
		if result.Bye != nil {
			bye := &models.Bye{TournamentID: tournamentID, PlayerID: result.Bye.ID, Round: round}
			if err := s.byeRepo.Create(ctx, tx, bye); err != nil {
				if errors.Is(err, repositories.ErrByeAlreadyRecorded) {
					return fmt.Errorf("%w: player %d", ErrByeAlreadyRecorded, bye.PlayerID)
				}
				return fmt.Errorf("failed to record bye: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	attrs := []any{
		slog.Int("tournament_id", tournamentID),
		slog.Int("round", result.Round),
		slog.Int("pairs", len(result.Pairs)),
		slog.Int("forced_rematches", result.ForcedRematches()),
	}
	if result.Bye != nil {
		attrs = append(attrs, slog.Int("bye_player_id", result.Bye.ID))
	}
	s.logger.InfoContext(ctx, "round paired", attrs...)

	notify(s.notifier, tournamentID, brackets.MessageRoundPaired, result)
	return result, nil
}

// loadSnapshot fetches standings, bye holders and match history in parallel.
// The reads use the pool rather than one transaction; the tournament lock
// keeps them consistent.
func (s *pairingService) loadSnapshot(ctx context.Context, tournamentID, round int) (brackets.Snapshot, error) {
	var (
		standings []models.StandingRow
		byeIDs    []int
		matches   []*models.Match
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		standings, err = s.standingRepo.ListByTournament(gCtx, nil, tournamentID, false)
		if err != nil {
			return fmt.Errorf("failed to load standings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		byeIDs, err = s.byeRepo.ListPlayerIDs(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load bye holders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load match history: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return brackets.Snapshot{}, err
	}

	return brackets.Snapshot{
		TournamentID: tournamentID,
		Round:        round,
		Standings:    standings,
		ByeHolders:   brackets.ByeHolderSet(byeIDs),
		History:      brackets.NewPlayedSet(matches),
	}, nil
}

func (s *pairingService) GetRound(ctx context.Context, tournamentID, round int) (*models.PairingResult, error) {
	t, err := getTournament(ctx, s.tournamentRepo, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	if round < 1 || round > t.RoundsPaired {
		return nil, fmt.Errorf("%w: round %d of tournament %d", ErrRoundNotFound, round, tournamentID)
	}

	result := &models.PairingResult{TournamentID: tournamentID, Round: round}
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pairs, err := s.pairingRepo.ListByRound(gCtx, nil, tournamentID, round)
		if err != nil {
			return fmt.Errorf("failed to load pairings: %w", err)
		}
		result.Pairs = pairs
		return nil
	})
	g.Go(func() error {
		bye, err := s.byeRepo.GetByRound(gCtx, nil, tournamentID, round)
		if err != nil {
			return fmt.Errorf("failed to load bye: %w", err)
		}
		result.Bye = bye
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
