package models

// StandingRow is derived from matches, never stored. OMW is nil unless the
// OMW-aware view was requested.
type StandingRow struct {
	TournamentID  int    `json:"tournament_id" db:"t_id"`
	PlayerID      int    `json:"player_id" db:"p_id"`
	Name          string `json:"name" db:"name"`
	Wins          int    `json:"wins" db:"wins"`
	MatchesPlayed int    `json:"matches_played" db:"matches"`
	OMW           *int   `json:"omw,omitempty" db:"omw"`
}

// OMWValue treats a missing OMW as zero.
func (s StandingRow) OMWValue() int {
	if s.OMW == nil {
		return 0
	}
	return *s.OMW
}

func (s StandingRow) Ref() PlayerRef {
	return PlayerRef{ID: s.PlayerID, Name: s.Name}
}
