package game

import (
	"math/rand/v2"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/janpfeifer/GoTales/internal/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventLog records the events of an Engine.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) listen(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) count(kind EventKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// orderedDeck returns a deck with pairs in dealing order: cards 2i and 2i+1 match.
func orderedDeck(pairs int) Deck {
	glyphs := []string{"🤖", "🧚", "🦖", "🐱", "🍎", "🚀", "🍭", "🍪"}
	deck := make(Deck, 0, 2*pairs)
	for i := range pairs {
		src := content.Symbol(glyphs[i])
		deck = append(deck, Card{ID: 2 * i, Content: src}, Card{ID: 2*i + 1, Content: src})
	}
	return deck
}

func cardByID(t *testing.T, e *Engine, id int) Card {
	t.Helper()
	for _, c := range e.Cards() {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("card %d not found", id)
	return Card{}
}

func TestStartNewGameResets(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e := NewEngine(DefaultTiming(), nil)
		defer e.Close()
		require.NoError(t, e.StartNewGame(orderedDeck(3)))
		require.True(t, e.Flip(0))
		require.True(t, e.Flip(1))
		time.Sleep(time.Second)
		synctest.Wait()
		require.Equal(t, 1, e.MatchedPairs())

		require.NoError(t, e.StartNewGame(orderedDeck(3)))
		assert.Zero(t, e.MatchedPairs())
		assert.False(t, e.Busy())
		assert.False(t, e.Won())
		assert.Zero(t, e.FaceUpCount())
		for _, c := range e.Cards() {
			assert.Equal(t, FaceDown, c.State())
		}
	})
}

func TestFlipMatchingPair(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var log eventLog
		e := NewEngine(DefaultTiming(), log.listen)
		defer e.Close()
		require.NoError(t, e.StartNewGame(orderedDeck(3)))

		require.True(t, e.Flip(2))
		require.True(t, e.Flip(3))
		assert.True(t, e.Busy())
		assert.Equal(t, FaceUp, cardByID(t, e, 2).State())

		// Flips during the busy window are no-ops.
		assert.False(t, e.Flip(0))
		assert.Equal(t, FaceDown, cardByID(t, e, 0).State())

		time.Sleep(499 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, FaceUp, cardByID(t, e, 3).State())
		assert.Zero(t, e.MatchedPairs())

		time.Sleep(2 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, Matched, cardByID(t, e, 2).State())
		assert.Equal(t, Matched, cardByID(t, e, 3).State())
		assert.Equal(t, 1, e.MatchedPairs())
		assert.False(t, e.Busy())
		assert.Zero(t, e.FaceUpCount())
		assert.Equal(t, 1, log.count(EventMatch))

		// Matched cards can't be flipped again.
		assert.False(t, e.Flip(2))
	})
}

func TestFlipMismatchingPair(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var log eventLog
		e := NewEngine(DefaultTiming(), log.listen)
		defer e.Close()
		require.NoError(t, e.StartNewGame(orderedDeck(3)))

		require.True(t, e.Flip(0))
		assert.False(t, e.Flip(0), "already face up")
		require.True(t, e.Flip(4))
		assert.True(t, e.Busy())

		time.Sleep(999 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, FaceUp, cardByID(t, e, 0).State())
		assert.True(t, e.Busy())

		time.Sleep(2 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, FaceDown, cardByID(t, e, 0).State())
		assert.Equal(t, FaceDown, cardByID(t, e, 4).State())
		assert.False(t, e.Busy())
		assert.Zero(t, e.MatchedPairs())
		assert.Equal(t, 1, log.count(EventMismatch))

		// The board is playable again.
		assert.True(t, e.Flip(0))
	})
}

func TestFlipUnknownCard(t *testing.T) {
	e := NewEngine(DefaultTiming(), nil)
	defer e.Close()
	assert.False(t, e.Flip(0), "no deck yet")
	require.NoError(t, e.StartNewGame(orderedDeck(2)))
	assert.False(t, e.Flip(42))
	assert.False(t, e.Flip(-1))
	assert.Zero(t, e.FaceUpCount())
}

func TestGameWonFiresOnce(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var log eventLog
		e := NewEngine(DefaultTiming(), log.listen)
		defer e.Close()
		require.NoError(t, e.StartNewGame(orderedDeck(3)))

		for pair := range 3 {
			require.True(t, e.Flip(2*pair+1))
			require.True(t, e.Flip(2*pair))
			time.Sleep(501 * time.Millisecond)
			synctest.Wait()
			assert.False(t, e.Won(), "won before the win delay")
		}
		assert.Equal(t, 3, e.MatchedPairs())

		time.Sleep(500 * time.Millisecond)
		synctest.Wait()
		assert.True(t, e.Won())
		assert.Equal(t, 1, log.count(EventWon))

		time.Sleep(10 * time.Second)
		synctest.Wait()
		assert.Equal(t, 1, log.count(EventWon))
		for _, c := range e.Cards() {
			assert.Equal(t, Matched, c.State())
		}
	})
}

func TestStaleTimerAfterNewGame(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var log eventLog
		e := NewEngine(DefaultTiming(), log.listen)
		defer e.Close()
		require.NoError(t, e.StartNewGame(orderedDeck(3)))

		// Mismatch pending on the old deck.
		require.True(t, e.Flip(0))
		require.True(t, e.Flip(2))

		time.Sleep(100 * time.Millisecond)
		require.NoError(t, e.StartNewGame(orderedDeck(3)))
		require.True(t, e.Flip(0), "new game is not busy")

		// Past the old mismatch deadline: the stale resolution must not touch the new deck.
		time.Sleep(2 * time.Second)
		synctest.Wait()
		assert.Equal(t, FaceUp, cardByID(t, e, 0).State())
		assert.Equal(t, 1, e.FaceUpCount())
		assert.False(t, e.Busy())
		assert.Zero(t, log.count(EventMismatch))
	})
}

func TestStaleWinAfterNewGame(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var log eventLog
		e := NewEngine(DefaultTiming(), log.listen)
		defer e.Close()
		require.NoError(t, e.StartNewGame(orderedDeck(1)))
		require.True(t, e.Flip(0))
		require.True(t, e.Flip(1))
		time.Sleep(600 * time.Millisecond) // Matched; win is still pending.
		synctest.Wait()
		require.Equal(t, 1, e.MatchedPairs())

		require.NoError(t, e.StartNewGame(orderedDeck(2)))
		time.Sleep(time.Second)
		synctest.Wait()
		assert.False(t, e.Won())
		assert.Zero(t, log.count(EventWon))
	})
}

func TestRapidConcurrentFlips(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e := NewEngine(DefaultTiming(), nil)
		defer e.Close()
		require.NoError(t, e.StartNewGame(orderedDeck(6)))

		var mu sync.Mutex
		accepted := 0
		var wg sync.WaitGroup
		for _, c := range e.Cards() {
			for range 3 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if e.Flip(c.ID) {
						mu.Lock()
						accepted++
						mu.Unlock()
					}
				}()
			}
		}
		wg.Wait()
		assert.Equal(t, 2, accepted)
		assert.Equal(t, 2, e.FaceUpCount())
		assert.True(t, e.Busy())

		time.Sleep(2 * time.Second)
		synctest.Wait()
		assert.False(t, e.Busy())
	})
}

func TestRandomPlayInvariants(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rng := rand.New(rand.NewPCG(3, 5))
		e := NewEngine(DefaultTiming(), nil)
		defer e.Close()
		require.NoError(t, e.StartNewGame(BuildDeck(nil, FallbackSymbols(), 4, rng)))

		matched := make(map[int]bool)
		for step := 0; step < 500 && !e.Won(); step++ {
			e.Flip(rng.IntN(10) - 1)
			time.Sleep(time.Duration(rng.IntN(700)) * time.Millisecond)
			synctest.Wait()

			faceUp := 0
			for _, c := range e.Cards() {
				if c.State() == FaceUp {
					faceUp++
				}
				if matched[c.ID] {
					require.Equal(t, Matched, c.State(), "card %d left the matched state", c.ID)
				}
				if c.Matched {
					matched[c.ID] = true
				}
			}
			require.LessOrEqual(t, faceUp, 2)
			require.Equal(t, len(matched)/2, e.MatchedPairs())
		}
	})
}

func TestStartNewGameRejectsInvalidDeck(t *testing.T) {
	e := NewEngine(DefaultTiming(), nil)
	defer e.Close()
	require.NoError(t, e.StartNewGame(orderedDeck(2)))
	require.True(t, e.Flip(0))

	assert.ErrorIs(t, e.StartNewGame(Deck{}), ErrEmptyDeck)
	assert.ErrorIs(t, e.StartNewGame(orderedDeck(2)[:3]), ErrInvalidDeck)

	// The running game is untouched.
	assert.Len(t, e.Cards(), 4)
	assert.Equal(t, 1, e.FaceUpCount())
}

func TestCloseDiscardsPendingResolution(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var log eventLog
		e := NewEngine(DefaultTiming(), log.listen)
		require.NoError(t, e.StartNewGame(orderedDeck(2)))
		require.True(t, e.Flip(0))
		require.True(t, e.Flip(1))
		e.Close()

		time.Sleep(2 * time.Second)
		synctest.Wait()
		assert.Zero(t, log.count(EventMatch))
		assert.Zero(t, e.MatchedPairs())
		assert.False(t, e.Flip(2))
		assert.Error(t, e.StartNewGame(orderedDeck(2)))
	})
}

func TestEventsDeliveredInOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var log eventLog
		e := NewEngine(Timing{}, func(ev Event) {
			if ev.Kind == EventFlip {
				// A slow listener: the zero-delay resolution fires meanwhile.
				time.Sleep(time.Millisecond)
			}
			log.listen(ev)
		})
		defer e.Close()
		require.NoError(t, e.StartNewGame(orderedDeck(1)))
		require.True(t, e.Flip(0))
		require.True(t, e.Flip(1))
		synctest.Wait()

		var kinds []EventKind
		for _, ev := range log.events {
			kinds = append(kinds, ev.Kind)
		}
		assert.Equal(t, []EventKind{EventNewGame, EventFlip, EventFlip, EventMatch, EventWon}, kinds)
		assert.True(t, e.Won())
	})
}

func TestListenerMayCallEngine(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var log eventLog
		var e *Engine
		e = NewEngine(DefaultTiming(), func(ev Event) {
			log.listen(ev)
			if ev.Kind == EventFlip && len(ev.CardIDs) == 1 && ev.CardIDs[0] == 0 {
				e.Flip(1)
			}
		})
		defer e.Close()
		require.NoError(t, e.StartNewGame(orderedDeck(2)))
		require.True(t, e.Flip(0))
		assert.Equal(t, 2, log.count(EventFlip), "the nested flip is delivered before Flip returns")
		assert.True(t, e.Busy())
	})
}
