package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/swiss-tournament/models"
	"github.com/Dosada05/swiss-tournament/repositories"
	"github.com/Dosada05/swiss-tournament/utils"
)

const defaultListLimit = 100

type PlayerService interface {
	Register(ctx context.Context, name string) (*models.Player, error)
	GetByID(ctx context.Context, id int) (*models.Player, error)
	List(ctx context.Context, limit, offset int) ([]models.Player, int, error)
	Delete(ctx context.Context, id int) error
}

type playerService struct {
	playerRepo repositories.PlayerRepository
}

func NewPlayerService(playerRepo repositories.PlayerRepository) PlayerService {
	return &playerService{playerRepo: playerRepo}
}

func (s *playerService) Register(ctx context.Context, name string) (*models.Player, error) {
	cleaned := utils.CleanName(name)
	if cleaned == "" {
		return nil, ErrPlayerNameRequired
	}
	player := &models.Player{Name: cleaned}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to register player: %w", err)
	}
	return player, nil
}

func (s *playerService) GetByID(ctx context.Context, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to load player %d: %w", id, err)
	}
	return player, nil
}

// List returns one page of players and the total count.
func (s *playerService) List(ctx context.Context, limit, offset int) ([]models.Player, int, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	players, err := s.playerRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list players: %w", err)
	}
	total, err := s.playerRepo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count players: %w", err)
	}
	return players, total, nil
}

func (s *playerService) Delete(ctx context.Context, id int) error {
	err := s.playerRepo.Delete(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrPlayerInUse):
		return ErrPlayerInUse
	default:
		return fmt.Errorf("failed to delete player %d: %w", id, err)
	}
}
