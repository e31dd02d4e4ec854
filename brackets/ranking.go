package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/swiss-tournament/models"
)

// RankStandings returns a copy ordered by wins desc, then OMW desc. The sort
// is stable, so rows tied on both keys keep their input order.
func RankStandings(rows []models.StandingRow) []models.StandingRow {
	ranked := make([]models.StandingRow, len(rows))
	copy(ranked, rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Wins != ranked[j].Wins {
			return ranked[i].Wins > ranked[j].Wins
		}
		return ranked[i].OMWValue() > ranked[j].OMWValue()
	})
	return ranked
}

type Winner struct {
	Player     models.PlayerRef `json:"player"`
	Wins       int              `json:"wins"`
	OMW        int              `json:"omw"`
	ByTiebreak bool             `json:"by_tiebreak"`
}

// DecideWinner picks the tournament winner from final standings. A player
// strictly ahead on wins wins outright; otherwise OMW breaks the tie.
func DecideWinner(rows []models.StandingRow) (*Winner, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no standings to rank", ErrInsufficientPlayers)
	}
	ranked := RankStandings(rows)
	top := ranked[0]
	winner := &Winner{Player: top.Ref(), Wins: top.Wins, OMW: top.OMWValue()}
	if len(ranked) == 1 {
		return winner, nil
	}

	next := ranked[1]
	if top.Wins > next.Wins {
		return winner, nil
	}
	if top.OMWValue() > next.OMWValue() {
		winner.ByTiebreak = true
		return winner, nil
	}
	return nil, fmt.Errorf("%w: players %d and %d tied at %d wins, %d OMW",
		ErrNoWinner, top.PlayerID, next.PlayerID, top.Wins, top.OMWValue())
}
