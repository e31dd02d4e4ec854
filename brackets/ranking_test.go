package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/swiss-tournament/models"
)

func omwRow(id, wins, omw int) models.StandingRow {
	r := row(id, wins)
	r.OMW = &omw
	return r
}

func playerIDs(rows []models.StandingRow) []int {
	ids := make([]int, len(rows))
	for i, r := range rows {
		ids[i] = r.PlayerID
	}
	return ids
}

func TestRankStandings(t *testing.T) {
	rows := []models.StandingRow{
		omwRow(1, 1, 4),
		omwRow(2, 2, 1),
		omwRow(3, 1, 6),
		omwRow(4, 2, 3),
		omwRow(5, 1, 4),
	}

	ranked := RankStandings(rows)
	assert.Equal(t, []int{4, 2, 3, 1, 5}, playerIDs(ranked))
	assert.Equal(t, ranked, RankStandings(ranked), "ranking twice must not reorder")
	assert.Equal(t, 1, rows[0].PlayerID, "input must not be modified")
}

func TestRankStandingsWithoutOMW(t *testing.T) {
	rows := []models.StandingRow{row(1, 0), row(2, 3), row(3, 0)}
	assert.Equal(t, []int{2, 1, 3}, playerIDs(RankStandings(rows)))
}

func TestDecideWinner(t *testing.T) {
	t.Run("outright", func(t *testing.T) {
		w, err := DecideWinner([]models.StandingRow{omwRow(1, 2, 1), omwRow(2, 3, 0), omwRow(3, 1, 5)})
		require.NoError(t, err)
		assert.Equal(t, 2, w.Player.ID)
		assert.False(t, w.ByTiebreak)
	})

	t.Run("by tiebreak", func(t *testing.T) {
		w, err := DecideWinner([]models.StandingRow{omwRow(1, 3, 4), omwRow(2, 3, 7), omwRow(3, 1, 9)})
		require.NoError(t, err)
		assert.Equal(t, 2, w.Player.ID)
		assert.Equal(t, 7, w.OMW)
		assert.True(t, w.ByTiebreak)
	})

	t.Run("no winner", func(t *testing.T) {
		_, err := DecideWinner([]models.StandingRow{omwRow(1, 3, 4), omwRow(2, 3, 4)})
		assert.ErrorIs(t, err, ErrNoWinner)
	})

	t.Run("single player", func(t *testing.T) {
		w, err := DecideWinner([]models.StandingRow{row(7, 0)})
		require.NoError(t, err)
		assert.Equal(t, 7, w.Player.ID)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := DecideWinner(nil)
		assert.ErrorIs(t, err, ErrInsufficientPlayers)
	})
}
