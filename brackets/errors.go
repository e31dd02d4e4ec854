package brackets

import "errors"

var (
	// ErrInsufficientPlayers is returned when fewer than two players are enrolled.
	ErrInsufficientPlayers = errors.New("insufficient players for pairing")
	// ErrExhaustedByePool means the pool is odd but every player already holds a bye.
	ErrExhaustedByePool = errors.New("every eligible player already received a bye")
	// ErrPairingInvariantViolation signals a defect: an unpaired player was left over.
	ErrPairingInvariantViolation = errors.New("pairing invariant violated")
	// ErrNoWinner is returned when the top two players tie on wins and OMW.
	ErrNoWinner = errors.New("no winner by tiebreak")
)
