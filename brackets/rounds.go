package brackets

import (
	"fmt"
	"math/bits"
)

// RoundsRequired returns the smallest r such that 2^r >= playerCount, the
// number of rounds a single-elimination field of that size would need.
func RoundsRequired(playerCount int) (int, error) {
	if playerCount < 1 {
		return 0, fmt.Errorf("%w: rounds required for %d players", ErrInsufficientPlayers, playerCount)
	}
	return bits.Len(uint(playerCount - 1)), nil
}
