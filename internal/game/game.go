package game

import "time"

// Version of the app.
// Bumping this number will eventually make clients reload the WASM.
//
// If you set this to an empty string, a random version number will be
// used, and force the reload of the WASM on every restart (the reload
// still only happens after the first page is loaded, so there is a delay).
// This is useful during development.
var Version = "v0.1.0"

// DefaultPairCount is the number of pairs in a memory game: 12 cards.
const DefaultPairCount = 6

// Timing holds the delays of the deferred state transitions of the Engine and the Lock.
type Timing struct {
	MatchDelay    time.Duration // Before a matching pair is marked as matched.
	MismatchDelay time.Duration // Before a mismatching pair is turned face down again.
	WonDelay      time.Duration // Between the last match and the game-won signal.

	UnlockDelay    time.Duration // Between a correct lock sequence and unlocking.
	LockResetDelay time.Duration // How long a wrong lock sequence is shown before it is cleared.
}

// DefaultTiming returns the delays used by the app.
func DefaultTiming() Timing {
	return Timing{
		MatchDelay:     500 * time.Millisecond,
		MismatchDelay:  time.Second,
		WonDelay:       500 * time.Millisecond,
		UnlockDelay:    500 * time.Millisecond,
		LockResetDelay: time.Second,
	}
}
