package brackets

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/Dosada05/swiss-tournament/models"
)

// Chooser picks an index in [0, n). Out-of-range results wrap around.
type Chooser func(n int) int

// PickFirst always takes the first candidate, which makes pairings fully
// deterministic given the standings order.
func PickFirst(int) int { return 0 }

type Option func(*SwissPairer)

// WithRand draws choices from r. Access to r is serialized so one pairer can
// serve several tournaments concurrently.
func WithRand(r *rand.Rand) Option {
	var mu sync.Mutex
	return func(p *SwissPairer) {
		p.choose = func(n int) int {
			mu.Lock()
			defer mu.Unlock()
			return r.Intn(n)
		}
	}
}

func WithChooser(c Chooser) Option {
	return func(p *SwissPairer) {
		if c != nil {
			p.choose = c
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *SwissPairer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// SwissPairer computes one round of Swiss pairings. It keeps no state between
// calls and never performs I/O.
type SwissPairer struct {
	choose Chooser
	logger *slog.Logger
}

func NewSwissPairer(opts ...Option) *SwissPairer {
	p := &SwissPairer{
		choose: rand.Intn,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *SwissPairer) GetName() string {
	return "Swiss"
}

// Pair assigns the bye (odd pools only) and pairs the remaining players,
// preferring same-win opponents they have not met yet.
func (p *SwissPairer) Pair(snap Snapshot) (*models.PairingResult, error) {
	n := len(snap.Standings)
	if n < 2 {
		return nil, fmt.Errorf("%w: tournament %d has %d enrolled players", ErrInsufficientPlayers, snap.TournamentID, n)
	}

	rows, err := orderStandings(snap)
	if err != nil {
		return nil, err
	}

	result := &models.PairingResult{
		TournamentID: snap.TournamentID,
		Round:        snap.Round,
		Pairs:        make([]models.Pair, 0, n/2),
	}

	pool := rows
	if n%2 == 1 {
		idx, err := p.selectBye(snap, rows)
		if err != nil {
			return nil, err
		}
		bye := rows[idx].Ref()
		result.Bye = &bye

		pool = make([]models.StandingRow, 0, n-1)
		pool = append(pool, rows[:idx]...)
		pool = append(pool, rows[idx+1:]...)
	}

	if len(pool)%2 != 0 {
		return nil, fmt.Errorf("%w: tournament %d, working pool of %d players is odd after bye selection",
			ErrPairingInvariantViolation, snap.TournamentID, len(pool))
	}

	a := newArena(pool)
	for i := range a.entries {
		if a.entries[i].paired {
			continue
		}
		j, rematch, ok := a.findOpponent(i, snap.History, p.choose)
		if !ok {
			return nil, fmt.Errorf("%w: tournament %d, pool size %d: no opponent left for player %d",
				ErrPairingInvariantViolation, snap.TournamentID, len(pool), a.entries[i].ref.ID)
		}
		a.entries[i].paired = true
		a.entries[j].paired = true

		first, second := a.entries[i].ref, a.entries[j].ref
		result.Pairs = append(result.Pairs, models.Pair{
			Player1ID:   first.ID,
			Player1Name: first.Name,
			Player2ID:   second.ID,
			Player2Name: second.Name,
			Rematch:     rematch,
		})
		if rematch {
			p.logger.Warn("forced rematch",
				slog.Int("tournament_id", snap.TournamentID),
				slog.Int("round", snap.Round),
				slog.Int("player_id", first.ID),
				slog.Int("opponent_id", second.ID))
		}
	}

	if len(result.Pairs)*2 != len(pool) {
		return nil, fmt.Errorf("%w: tournament %d paired %d of %d players",
			ErrPairingInvariantViolation, snap.TournamentID, len(result.Pairs)*2, len(pool))
	}
	return result, nil
}

// orderStandings returns a copy sorted by wins desc, keeping the caller's
// order inside a win group, and rejects duplicate player ids.
func orderStandings(snap Snapshot) ([]models.StandingRow, error) {
	rows := make([]models.StandingRow, len(snap.Standings))
	copy(rows, snap.Standings)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Wins > rows[j].Wins
	})

	seen := make(map[int]struct{}, len(rows))
	for _, r := range rows {
		if _, dup := seen[r.PlayerID]; dup {
			return nil, fmt.Errorf("%w: tournament %d, player %d appears twice in standings",
				ErrPairingInvariantViolation, snap.TournamentID, r.PlayerID)
		}
		seen[r.PlayerID] = struct{}{}
	}
	return rows, nil
}

// selectBye returns the index of the bye recipient: the lowest-ranked player
// who has not had a bye yet, chosen at random among ties.
func (p *SwissPairer) selectBye(snap Snapshot, rows []models.StandingRow) (int, error) {
	lowest := math.MaxInt
	var candidates []int
	for i, r := range rows {
		if _, held := snap.ByeHolders[r.PlayerID]; held {
			continue
		}
		if r.Wins < lowest {
			lowest = r.Wins
			candidates = candidates[:0]
		}
		if r.Wins == lowest {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return 0, fmt.Errorf("%w: tournament %d, pool size %d, %d bye holders",
			ErrExhaustedByePool, snap.TournamentID, len(rows), len(snap.ByeHolders))
	}
	return candidates[pick(p.choose, len(candidates))], nil
}

func pick(choose Chooser, n int) int {
	k := choose(n) % n
	if k < 0 {
		k += n
	}
	return k
}

type entry struct {
	ref    models.PlayerRef
	wins   int
	paired bool
}

// arena holds one call's working pool. buckets maps a win count to entry
// indexes in standings order; keys lists win counts in descending order.
type arena struct {
	entries []entry
	buckets map[int][]int
	keys    []int
}

func newArena(pool []models.StandingRow) *arena {
	a := &arena{
		entries: make([]entry, len(pool)),
		buckets: make(map[int][]int),
	}
	for i, r := range pool {
		a.entries[i] = entry{ref: r.Ref(), wins: r.Wins}
		if _, ok := a.buckets[r.Wins]; !ok {
			a.keys = append(a.keys, r.Wins)
		}
		a.buckets[r.Wins] = append(a.buckets[r.Wins], i)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(a.keys)))
	return a
}

// findOpponent looks for a fresh opponent at increasing win distance and
// only falls back to a rematch when no fresh opponent is left anywhere.
func (a *arena) findOpponent(i int, history MatchHistory, choose Chooser) (int, bool, bool) {
	if j, ok := a.search(i, history, false, choose); ok {
		return j, false, true
	}
	if j, ok := a.search(i, history, true, choose); ok {
		return j, true, true
	}
	return -1, false, false
}

func (a *arena) search(i int, history MatchHistory, rematch bool, choose Chooser) (int, bool) {
	self := a.entries[i]
	start := sort.Search(len(a.keys), func(k int) bool { return a.keys[k] <= self.wins })

	for _, wins := range a.keys[start:] {
		var candidates []int
		for _, j := range a.buckets[wins] {
			if j == i || a.entries[j].paired {
				continue
			}
			played := history != nil && history.HasPlayed(self.ref.ID, a.entries[j].ref.ID)
			if played != rematch {
				continue
			}
			candidates = append(candidates, j)
		}
		if len(candidates) > 0 {
			return candidates[pick(choose, len(candidates))], true
		}
	}
	return -1, false
}
