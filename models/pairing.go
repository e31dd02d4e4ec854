package models

// Pair is one match of a round. Rematch is set when the engine had to fall
// back to an opponent the first player already faced.
type Pair struct {
	Player1ID   int    `json:"player1_id"`
	Player1Name string `json:"player1_name"`
	Player2ID   int    `json:"player2_id"`
	Player2Name string `json:"player2_name"`
	Rematch     bool   `json:"rematch,omitempty"`
	// MatchID is set once the result of a stored pairing is reported.
	MatchID *int `json:"match_id,omitempty"`
}

// PairingResult is produced fresh for every round.
type PairingResult struct {
	TournamentID int        `json:"tournament_id"`
	Round        int        `json:"round"`
	Pairs        []Pair     `json:"pairs"`
	Bye          *PlayerRef `json:"bye"`
}

func (r *PairingResult) ForcedRematches() int {
	n := 0
	for _, p := range r.Pairs {
		if p.Rematch {
			n++
		}
	}
	return n
}

// PlayerIDs flattens pairs and bye, in result order.
func (r *PairingResult) PlayerIDs() []int {
	ids := make([]int, 0, len(r.Pairs)*2+1)
	for _, p := range r.Pairs {
		ids = append(ids, p.Player1ID, p.Player2ID)
	}
	if r.Bye != nil {
		ids = append(ids, r.Bye.ID)
	}
	return ids
}
