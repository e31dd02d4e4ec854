package brackets

import (
	"github.com/Dosada05/swiss-tournament/models"
)

// Snapshot is everything the engine needs for one round, fetched once per call.
type Snapshot struct {
	TournamentID int
	Round        int
	Standings    []models.StandingRow
	ByeHolders   map[int]struct{}
	History      MatchHistory
}

// MatchHistory answers whether two players already met in this tournament.
// Implementations must be symmetric.
type MatchHistory interface {
	HasPlayed(a, b int) bool
}

type RoundGenerator interface {
	Pair(snap Snapshot) (*models.PairingResult, error)

	GetName() string
}

type playerPair struct{ lo, hi int }

func makePlayerPair(a, b int) playerPair {
	if a > b {
		a, b = b, a
	}
	return playerPair{lo: a, hi: b}
}

// PlayedSet is an in-memory MatchHistory built from a tournament's matches.
type PlayedSet struct {
	counts map[playerPair]int
}

func NewPlayedSet(matches []*models.Match) *PlayedSet {
	s := &PlayedSet{counts: make(map[playerPair]int, len(matches))}
	for _, m := range matches {
		if m == nil {
			continue
		}
		s.Add(m.WinnerID, m.LoserID)
	}
	return s
}

func (s *PlayedSet) Add(a, b int) {
	if s.counts == nil {
		s.counts = make(map[playerPair]int)
	}
	s.counts[makePlayerPair(a, b)]++
}

func (s *PlayedSet) HasPlayed(a, b int) bool {
	return s.Times(a, b) > 0
}

// Times reports how many matches a and b played against each other.
func (s *PlayedSet) Times(a, b int) int {
	if s == nil {
		return 0
	}
	return s.counts[makePlayerPair(a, b)]
}

// ByeHolderSet converts a list of player ids into the set form used by Snapshot.
func ByeHolderSet(playerIDs []int) map[int]struct{} {
	set := make(map[int]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		set[id] = struct{}{}
	}
	return set
}
