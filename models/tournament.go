package models

import "time"

// TournamentStatus mirrors the tournament_status values stored in the DB.
type TournamentStatus string

const (
	StatusRegistration TournamentStatus = "registration"
	StatusActive       TournamentStatus = "active"
	StatusCompleted    TournamentStatus = "completed"
	StatusCanceled     TournamentStatus = "canceled"
)

// Tournament is a Swiss-system event. Capacity is the expected player count.
type Tournament struct {
	ID             int              `json:"id" db:"id"`
	Capacity       int              `json:"capacity" db:"capacity"`
	Status         TournamentStatus `json:"status" db:"status"`
	RoundsPaired   int              `json:"rounds_paired" db:"rounds_paired"`
	WinnerPlayerID *int             `json:"winner_player_id,omitempty" db:"winner_player_id"`
	ArchiveKey     *string          `json:"-" db:"archive_key"`
	ArchiveURL     *string          `json:"archive_url,omitempty" db:"-"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`

	// Derived, populated by the service layer.
	PlayerCount    int `json:"player_count" db:"-"`
	RoundsRequired int `json:"rounds_required" db:"-"`
}
