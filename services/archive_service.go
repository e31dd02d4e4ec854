package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/swiss-tournament/brackets"
	"github.com/Dosada05/swiss-tournament/models"
	"github.com/Dosada05/swiss-tournament/repositories"
	"github.com/Dosada05/swiss-tournament/storage"
)

const archiveBatchSize = 20

// ArchiveDocument is the JSON object stored for a completed tournament.
type ArchiveDocument struct {
	Tournament *models.Tournament   `json:"tournament"`
	Standings  []models.StandingRow `json:"standings"`
	ArchivedAt time.Time            `json:"archived_at"`
}

type ArchiveService interface {
	// ArchiveTournament uploads the final standings and stores the object key on t.
	ArchiveTournament(ctx context.Context, t *models.Tournament) error
	// ArchivePending archives completed tournaments that have no archive yet.
	ArchivePending(ctx context.Context) (int, error)
}

type archiveService struct {
	tournamentRepo repositories.TournamentRepository
	standingRepo   repositories.StandingRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
	now            func() time.Time
}

func NewArchiveService(
	tournamentRepo repositories.TournamentRepository,
	standingRepo repositories.StandingRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) ArchiveService {
	return &archiveService{
		tournamentRepo: tournamentRepo,
		standingRepo:   standingRepo,
		uploader:       uploader,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *archiveService) ArchiveTournament(ctx context.Context, t *models.Tournament) error {
	if t.Status != models.StatusCompleted {
		return fmt.Errorf("%w: tournament %d is %s", ErrTournamentInvalidStatusTransition, t.ID, t.Status)
	}

	rows, err := s.standingRepo.ListByTournament(ctx, nil, t.ID, true)
	if err != nil {
		return fmt.Errorf("failed to load standings for archive: %w", err)
	}

	doc := ArchiveDocument{
		Tournament: t,
		Standings:  brackets.RankStandings(rows),
		ArchivedAt: s.now().UTC(),
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}

	key := storage.ArchiveKey(t.ID)
	if _, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body)); err != nil {
		return err
	}
	if err := s.tournamentRepo.SetArchiveKey(ctx, t.ID, key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete orphaned archive", slog.String("key", key), slog.Any("error", delErr))
		}
		return fmt.Errorf("failed to store archive key: %w", err)
	}
	t.ArchiveKey = &key

	s.logger.InfoContext(ctx, "tournament archived", slog.Int("tournament_id", t.ID), slog.String("key", key))
	return nil
}

func (s *archiveService) ArchivePending(ctx context.Context) (int, error) {
	pending, err := s.tournamentRepo.ListUnarchivedCompleted(ctx, archiveBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list unarchived tournaments: %w", err)
	}

	archived := 0
	for _, t := range pending {
		if err := ctx.Err(); err != nil {
			return archived, err
		}
		if err := s.ArchiveTournament(ctx, t); err != nil {
			s.logger.WarnContext(ctx, "archive attempt failed", slog.Int("tournament_id", t.ID), slog.Any("error", err))
			continue
		}
		archived++
	}
	return archived, nil
}
