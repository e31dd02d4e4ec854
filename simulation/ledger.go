package simulation

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Dosada05/swiss-tournament/brackets"
	"github.com/Dosada05/swiss-tournament/models"
)

var (
	ErrPlayerNotEnrolled  = errors.New("player is not enrolled in this tournament")
	ErrSelfMatch          = errors.New("a player cannot play against themselves")
	ErrByeAlreadyRecorded = errors.New("player already received a bye in this tournament")
)

// Ledger is an in-memory store for a single tournament: enrollment, matches
// and byes, with standings computed the same way the SQL views do.
type Ledger struct {
	mu           sync.RWMutex
	tournamentID int
	players      []models.Player
	enrolled     map[int]models.Player
	matches      []*models.Match
	byes         []*models.Bye
}

func NewLedger(tournamentID int, players []models.Player) *Ledger {
	l := &Ledger{
		tournamentID: tournamentID,
		players:      append([]models.Player(nil), players...),
		enrolled:     make(map[int]models.Player, len(players)),
	}
	for _, p := range players {
		l.enrolled[p.ID] = p
	}
	return l
}

func (l *Ledger) TournamentID() int {
	return l.tournamentID
}

// ReportMatch appends a result. Both players must be enrolled and distinct.
func (l *Ledger) ReportMatch(round, winnerID, loserID int) error {
	if winnerID == loserID {
		return fmt.Errorf("%w: player %d", ErrSelfMatch, winnerID)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range []int{winnerID, loserID} {
		if _, ok := l.enrolled[id]; !ok {
			return fmt.Errorf("%w: player %d, tournament %d", ErrPlayerNotEnrolled, id, l.tournamentID)
		}
	}
	l.matches = append(l.matches, &models.Match{
		ID:           len(l.matches) + 1,
		TournamentID: l.tournamentID,
		WinnerID:     winnerID,
		LoserID:      loserID,
		Round:        round,
	})
	return nil
}

// ReportBye records a bye, refusing a second one for the same player.
func (l *Ledger) ReportBye(round, playerID int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.enrolled[playerID]; !ok {
		return fmt.Errorf("%w: player %d, tournament %d", ErrPlayerNotEnrolled, playerID, l.tournamentID)
	}
	for _, b := range l.byes {
		if b.PlayerID == playerID {
			return fmt.Errorf("%w: player %d, tournament %d", ErrByeAlreadyRecorded, playerID, l.tournamentID)
		}
	}
	l.byes = append(l.byes, &models.Bye{
		ID:           len(l.byes) + 1,
		TournamentID: l.tournamentID,
		PlayerID:     playerID,
		Round:        round,
	})
	return nil
}

func (l *Ledger) Matches() []*models.Match {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*models.Match(nil), l.matches...)
}

func (l *Ledger) ByeHolders() []int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]int, 0, len(l.byes))
	for _, b := range l.byes {
		ids = append(ids, b.PlayerID)
	}
	return ids
}

// Standings orders by wins desc (then OMW desc when requested), then player id.
// OMW sums the current wins of each distinct opponent. Byes count as nothing.
func (l *Ledger) Standings(withOMW bool) []models.StandingRow {
	l.mu.RLock()
	defer l.mu.RUnlock()

	wins := make(map[int]int, len(l.players))
	played := make(map[int]int, len(l.players))
	opponents := make(map[int]map[int]struct{}, len(l.players))
	for _, m := range l.matches {
		wins[m.WinnerID]++
		played[m.WinnerID]++
		played[m.LoserID]++
		addOpponent(opponents, m.WinnerID, m.LoserID)
		addOpponent(opponents, m.LoserID, m.WinnerID)
	}

	rows := make([]models.StandingRow, 0, len(l.players))
	for _, p := range l.players {
		r := models.StandingRow{
			TournamentID:  l.tournamentID,
			PlayerID:      p.ID,
			Name:          p.Name,
			Wins:          wins[p.ID],
			MatchesPlayed: played[p.ID],
		}
		if withOMW {
			omw := 0
			for opp := range opponents[p.ID] {
				omw += wins[opp]
			}
			r.OMW = &omw
		}
		rows = append(rows, r)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Wins != rows[j].Wins {
			return rows[i].Wins > rows[j].Wins
		}
		if withOMW && rows[i].OMWValue() != rows[j].OMWValue() {
			return rows[i].OMWValue() > rows[j].OMWValue()
		}
		return rows[i].PlayerID < rows[j].PlayerID
	})
	return rows
}

// Snapshot gathers the engine inputs for the given round.
func (l *Ledger) Snapshot(round int) brackets.Snapshot {
	return brackets.Snapshot{
		TournamentID: l.tournamentID,
		Round:        round,
		Standings:    l.Standings(false),
		ByeHolders:   brackets.ByeHolderSet(l.ByeHolders()),
		History:      brackets.NewPlayedSet(l.Matches()),
	}
}

// Reset drops all matches and byes, keeping enrollment.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.matches = nil
	l.byes = nil
}

func addOpponent(opponents map[int]map[int]struct{}, player, opponent int) {
	if opponents[player] == nil {
		opponents[player] = make(map[int]struct{})
	}
	opponents[player][opponent] = struct{}{}
}
