// Package simulation plays whole Swiss tournaments in memory with random
// match outcomes. It is used to exercise the pairing engine end to end.
package simulation

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/Dosada05/swiss-tournament/brackets"
	"github.com/Dosada05/swiss-tournament/models"
)

type Config struct {
	TournamentID int
	Players      int
	Seed         int64
	Logger       *slog.Logger
}

type Report struct {
	TournamentID int                     `json:"tournament_id"`
	Players      int                     `json:"players"`
	Rounds       []*models.PairingResult `json:"rounds"`
	Final        []models.StandingRow    `json:"final"`
	Winner       *brackets.Winner        `json:"winner,omitempty"`
}

// DecideMatch picks a random winner for a pair.
func DecideMatch(rng *rand.Rand, p models.Pair) (winnerID, loserID int) {
	if rng.Intn(2) == 0 {
		return p.Player1ID, p.Player2ID
	}
	return p.Player2ID, p.Player1ID
}

// Run plays RoundsRequired(cfg.Players) rounds. Every round is checked with
// CheckRound before its results are recorded.
func Run(cfg Config) (*Report, error) {
	if cfg.TournamentID == 0 {
		cfg.TournamentID = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rounds, err := brackets.RoundsRequired(cfg.Players)
	if err != nil {
		return nil, err
	}

	players := make([]models.Player, cfg.Players)
	for i := range players {
		players[i] = models.Player{ID: i + 1, Name: fmt.Sprintf("Player %d", i+1)}
	}
	ledger := NewLedger(cfg.TournamentID, players)

	pairer := brackets.NewSwissPairer(
		brackets.WithRand(rand.New(rand.NewSource(cfg.Seed))),
		brackets.WithLogger(logger),
	)
	outcomes := rand.New(rand.NewSource(cfg.Seed + 1))

	report := &Report{TournamentID: cfg.TournamentID, Players: cfg.Players}
	for round := 1; round <= rounds; round++ {
		snap := ledger.Snapshot(round)
		res, err := pairer.Pair(snap)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}
		if err := CheckRound(snap, res); err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}

		for _, p := range res.Pairs {
			winner, loser := DecideMatch(outcomes, p)
			if err := ledger.ReportMatch(round, winner, loser); err != nil {
				return nil, err
			}
		}
		if res.Bye != nil {
			if err := ledger.ReportBye(round, res.Bye.ID); err != nil {
				return nil, err
			}
		}
		logger.Debug("round played",
			slog.Int("tournament_id", cfg.TournamentID),
			slog.Int("round", round),
			slog.Int("pairs", len(res.Pairs)),
			slog.Int("forced_rematches", res.ForcedRematches()))
		report.Rounds = append(report.Rounds, res)
	}

	report.Final = brackets.RankStandings(ledger.Standings(true))
	winner, err := brackets.DecideWinner(report.Final)
	switch {
	case err == nil:
		report.Winner = winner
	case errors.Is(err, brackets.ErrNoWinner):
		logger.Info("no winner by tiebreak", slog.Int("tournament_id", cfg.TournamentID))
	default:
		return nil, err
	}
	return report, nil
}

// CheckRound verifies that a pairing partitions the snapshot's players and
// that the bye, if any, went to a player without one.
func CheckRound(snap brackets.Snapshot, res *models.PairingResult) error {
	enrolled := make(map[int]bool, len(snap.Standings))
	for _, s := range snap.Standings {
		enrolled[s.PlayerID] = true
	}

	seen := make(map[int]bool, len(enrolled))
	for _, id := range res.PlayerIDs() {
		if !enrolled[id] {
			return fmt.Errorf("player %d is paired but not enrolled", id)
		}
		if seen[id] {
			return fmt.Errorf("player %d appears twice", id)
		}
		seen[id] = true
	}
	if len(seen) != len(enrolled) {
		return fmt.Errorf("%d of %d players were placed", len(seen), len(enrolled))
	}

	odd := len(enrolled)%2 == 1
	if odd != (res.Bye != nil) {
		return fmt.Errorf("bye presence does not match pool parity (%d players)", len(enrolled))
	}
	if res.Bye != nil {
		if _, held := snap.ByeHolders[res.Bye.ID]; held {
			return fmt.Errorf("player %d received a second bye", res.Bye.ID)
		}
	}
	return nil
}
