package game

import (
	"fmt"
	"sync"
	"time"

	"k8s.io/klog/v2"
)

// EventKind enumerates the changes an Engine reports to its listener.
type EventKind int

const (
	EventNewGame  EventKind = iota // A new deck was dealt.
	EventFlip                      // A card was turned face up.
	EventMatch                     // A pair was resolved as matched.
	EventMismatch                  // A pair was turned face down again.
	EventWon                       // All pairs are matched: fired once per game.
)

func (k EventKind) String() string {
	switch k {
	case EventNewGame:
		return "NewGame"
	case EventFlip:
		return "Flip"
	case EventMatch:
		return "Match"
	case EventMismatch:
		return "Mismatch"
	case EventWon:
		return "Won"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event describes a state change of the Engine.
type Event struct {
	Kind         EventKind
	CardIDs      []int // Cards involved, for Flip, Match and Mismatch.
	MatchedPairs int   // Number of matched pairs after the change.
}

// Engine is the memory game state machine.
//
// At most two cards are face up (and not matched) at any time. When the second one is flipped the
// engine becomes busy and resolves the pair after a delay: matched pairs stay up forever,
// mismatched ones are turned back down. While busy, flips are ignored.
//
// Deferred resolutions capture the round token current when they were scheduled, and are
// discarded if a new game was started (or the engine closed) in between.
//
// Engine is safe for concurrent use. Events are queued in the order the changes happen and
// delivered one at a time, in that order, without holding the engine lock. Whichever goroutine
// finds the queue idle delivers them: the caller of Flip or StartNewGame, or a timer goroutine.
// A listener may call back into the engine; those events are delivered after it returns.
type Engine struct {
	mu     sync.Mutex
	timing Timing

	cards        []Card
	index        map[int]int // Card ID -> position in cards.
	flipped      []int       // Positions of face-up unmatched cards, at most 2.
	busy         bool
	matchedPairs int
	won          bool

	round    uint64
	timer    *time.Timer // Pending pair resolution or game-won signal.
	listener func(Event)
	closed   bool

	pending    []Event // Queued for the listener.
	delivering bool
}

// NewEngine creates an Engine with no cards. Call StartNewGame to deal a deck.
// The listener may be nil.
func NewEngine(timing Timing, listener func(Event)) *Engine {
	return &Engine{
		timing:   timing,
		index:    make(map[int]int),
		listener: listener,
	}
}

// StartNewGame replaces the current deck and resets all game state.
// Any pending resolution of the previous game is discarded.
// An invalid deck is rejected and leaves the current game untouched.
func (e *Engine) StartNewGame(deck Deck) error {
	if err := deck.Validate(); err != nil {
		return fmt.Errorf("cannot start game: %w", err)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return fmt.Errorf("cannot start game: engine closed")
	}
	e.stopTimerLocked()
	e.round++
	e.cards = append([]Card(nil), deck...)
	e.index = make(map[int]int, len(deck))
	for i, c := range e.cards {
		e.index[c.ID] = i
	}
	e.flipped = e.flipped[:0]
	e.busy = false
	e.matchedPairs = 0
	e.won = false
	klog.V(1).Infof("Engine: new game (round %d) with %d cards", e.round, len(e.cards))
	e.emitLocked(Event{Kind: EventNewGame})
	e.mu.Unlock()

	e.deliver()
	return nil
}

// Flip turns the card with the given ID face up.
//
// It returns false, and does nothing, if the engine is busy resolving a pair, if there is no such
// card in the current deck, or if the card is already face up or matched.
func (e *Engine) Flip(cardID int) bool {
	e.mu.Lock()
	pos, found := e.index[cardID]
	if e.busy || e.closed || !found || e.cards[pos].Flipped || e.cards[pos].Matched {
		klog.V(2).Infof("Engine: ignoring flip of card %d (busy=%v, found=%v)", cardID, e.busy, found)
		e.mu.Unlock()
		return false
	}

	e.cards[pos].Flipped = true
	e.flipped = append(e.flipped, pos)
	e.emitLocked(Event{Kind: EventFlip, CardIDs: []int{cardID}, MatchedPairs: e.matchedPairs})
	if len(e.flipped) == 2 {
		e.busy = true
		e.scheduleResolutionLocked()
	}
	e.mu.Unlock()

	e.deliver()
	return true
}

// scheduleResolutionLocked compares the two face-up cards and schedules the matching or
// mismatching transition. It must be called with e.mu held.
func (e *Engine) scheduleResolutionLocked() {
	first, second := e.flipped[0], e.flipped[1]
	match := e.cards[first].Content.Equal(e.cards[second].Content)
	round := e.round
	delay := e.timing.MismatchDelay
	if match {
		delay = e.timing.MatchDelay
	}
	klog.V(1).Infof("Engine: cards %d and %d flipped, match=%v, resolving in %s",
		e.cards[first].ID, e.cards[second].ID, match, delay)
	e.timer = time.AfterFunc(delay, func() {
		e.resolve(round, first, second, match)
	})
}

func (e *Engine) resolve(round uint64, first, second int, match bool) {
	e.mu.Lock()
	if round != e.round {
		klog.V(1).Infof("Engine: discarding stale resolution of round %d (current %d)", round, e.round)
		e.mu.Unlock()
		return
	}
	e.timer = nil
	ids := []int{e.cards[first].ID, e.cards[second].ID}
	kind := EventMismatch
	if match {
		kind = EventMatch
		e.cards[first].Matched = true
		e.cards[second].Matched = true
		e.matchedPairs++
	} else {
		e.cards[first].Flipped = false
		e.cards[second].Flipped = false
	}
	e.flipped = e.flipped[:0]
	e.busy = false
	e.emitLocked(Event{Kind: kind, CardIDs: ids, MatchedPairs: e.matchedPairs})
	if match && e.matchedPairs == len(e.cards)/2 {
		klog.V(1).Infof("Engine: all %d pairs matched, signalling win in %s", e.matchedPairs, e.timing.WonDelay)
		e.timer = time.AfterFunc(e.timing.WonDelay, func() {
			e.signalWon(round)
		})
	}
	e.mu.Unlock()

	e.deliver()
}

func (e *Engine) signalWon(round uint64) {
	e.mu.Lock()
	if round != e.round || e.won {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	e.won = true
	klog.Infof("Engine: game won with %d pairs", e.matchedPairs)
	e.emitLocked(Event{Kind: EventWon, MatchedPairs: e.matchedPairs})
	e.mu.Unlock()

	e.deliver()
}

func (e *Engine) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// emitLocked queues ev for the listener. It must be called with e.mu held.
func (e *Engine) emitLocked(ev Event) {
	if e.listener != nil {
		e.pending = append(e.pending, ev)
	}
}

// deliver drains the event queue, unless another goroutine is already doing it.
func (e *Engine) deliver() {
	e.mu.Lock()
	if e.delivering {
		e.mu.Unlock()
		return
	}
	e.delivering = true
	for len(e.pending) > 0 && e.listener != nil {
		ev, listener := e.pending[0], e.listener
		e.pending = e.pending[1:]
		e.mu.Unlock()
		listener(ev)
		e.mu.Lock()
	}
	e.pending = nil
	e.delivering = false
	e.mu.Unlock()
}

// Close stops any pending timer and detaches the listener. The engine ignores all further calls.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTimerLocked()
	e.round++
	e.closed = true
	e.listener = nil
	e.pending = nil
}

// Cards returns a copy of the current deck, in board order.
func (e *Engine) Cards() []Card {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Card(nil), e.cards...)
}

// MatchedPairs returns the number of pairs matched in the current game.
func (e *Engine) MatchedPairs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.matchedPairs
}

// Busy reports whether a pair is waiting to be resolved.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// Won reports whether the game-won signal has fired for the current game.
func (e *Engine) Won() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.won
}

// FaceUpCount returns the number of face-up cards that are not matched.
func (e *Engine) FaceUpCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.flipped)
}
