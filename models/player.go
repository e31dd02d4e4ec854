package models

import "time"

// Player is registered once and may enroll in many tournaments.
type Player struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PlayerRef is the (id, name) tuple used in pairings.
type PlayerRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Organizer struct {
	ID           int       `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
