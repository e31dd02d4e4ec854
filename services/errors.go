package services

import "errors"

// Errors shared by services and mapped to HTTP statuses by the handlers.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	// Auth
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrInvalidEmail           = errors.New("email address is invalid")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrOrganizerEmailConflict = errors.New("email address is already in use")

	// Players
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPlayerNameRequired = errors.New("player name is required")
	ErrPlayerInUse        = errors.New("player has tournament history and cannot be deleted")

	// Tournaments
	ErrTournamentNotFound                = errors.New("tournament not found")
	ErrTournamentInvalidCapacity         = errors.New("tournament capacity must be at least 2")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")
	ErrTournamentNotActive               = errors.New("tournament is not active")
	ErrRegistrationNotOpen               = errors.New("tournament registration is not open")
	ErrTournamentFull                    = errors.New("tournament registration is full")
	ErrAlreadyEnrolled                   = errors.New("player is already enrolled in this tournament")
	ErrPlayerNotEnrolled                 = errors.New("player is not enrolled in this tournament")

	// Rounds and results
	ErrRoundInProgress    = errors.New("results of the current round are still missing")
	ErrAllRoundsPaired    = errors.New("all rounds of this tournament have been paired")
	ErrNoRoundsPaired     = errors.New("no round has been paired yet")
	ErrRoundNotFound      = errors.New("round not found")
	ErrSelfMatch          = errors.New("winner and loser must be different players")
	ErrMatchNotPaired     = errors.New("these players are not paired in the current round or the result is already reported")
	ErrByeAlreadyRecorded = errors.New("player already received a bye in this tournament")
)
