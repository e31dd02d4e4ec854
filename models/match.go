package models

import "time"

// Match is an append-only fact: WinnerID beat LoserID in the given round.
type Match struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	WinnerID     int       `json:"winner_id" db:"winner_id"`
	LoserID      int       `json:"loser_id" db:"loser_id"`
	Round        int       `json:"round" db:"round"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Bye records that a player sat out a round. At most one per player per tournament.
type Bye struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	PlayerID     int       `json:"player_id" db:"player_id"`
	Round        int       `json:"round" db:"round"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
