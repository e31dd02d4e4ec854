package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/swiss-tournament/models"
	"github.com/Dosada05/swiss-tournament/repositories"
	"github.com/Dosada05/swiss-tournament/utils"
)

const minPasswordLength = 8

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.Organizer, error)
	Login(ctx context.Context, input LoginInput) (*models.Organizer, error)
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authService struct {
	organizerRepo repositories.OrganizerRepository
}

func NewAuthService(organizerRepo repositories.OrganizerRepository) AuthService {
	return &authService{organizerRepo: organizerRepo}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.Organizer, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !utils.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	organizer := &models.Organizer{Email: email, PasswordHash: hash}
	if err := s.organizerRepo.Create(ctx, organizer); err != nil {
		if errors.Is(err, repositories.ErrOrganizerEmailConflict) {
			return nil, ErrOrganizerEmailConflict
		}
		return nil, fmt.Errorf("failed to create organizer: %w", err)
	}
	return organizer, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.Organizer, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	organizer, err := s.organizerRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrOrganizerNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load organizer: %w", err)
	}
	if !utils.CheckPasswordHash(input.Password, organizer.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return organizer, nil
}
