package game

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/janpfeifer/GoTales/internal/content"
	"github.com/janpfeifer/GoTales/internal/gallery"
)

// CardState is the visible state of a card.
type CardState int

const (
	FaceDown CardState = iota
	FaceUp
	Matched
)

func (s CardState) String() string {
	switch s {
	case FaceDown:
		return "FaceDown"
	case FaceUp:
		return "FaceUp"
	case Matched:
		return "Matched"
	default:
		return fmt.Sprintf("CardState(%d)", int(s))
	}
}

// Card is one card of the memory game.
type Card struct {
	ID      int            `json:"id"` // Unique within a deck, stable for the game's lifetime.
	Content content.Source `json:"content"`
	Flipped bool           `json:"flipped"`
	Matched bool           `json:"matched"` // Implies Flipped; never reset during a game.
}

// State returns the card's visible state.
func (c Card) State() CardState {
	switch {
	case c.Matched:
		return Matched
	case c.Flipped:
		return FaceUp
	default:
		return FaceDown
	}
}

// Deck is an ordered sequence of cards, where every content value appears exactly twice.
type Deck []Card

var (
	ErrEmptyDeck   = errors.New("deck has no cards")
	ErrInvalidDeck = errors.New("invalid deck")
)

// Validate checks the deck invariants: even, non-empty size, unique ids, each content
// exactly twice, and all cards face down and unmatched.
func (d Deck) Validate() error {
	if len(d) == 0 {
		return ErrEmptyDeck
	}
	if len(d)%2 != 0 {
		return fmt.Errorf("%w: odd number of cards (%d)", ErrInvalidDeck, len(d))
	}
	ids := make(map[int]bool, len(d))
	counts := make(map[content.Source]int, len(d)/2)
	for _, c := range d {
		if ids[c.ID] {
			return fmt.Errorf("%w: duplicate card id %d", ErrInvalidDeck, c.ID)
		}
		ids[c.ID] = true
		if c.Flipped || c.Matched {
			return fmt.Errorf("%w: card %d is not face down", ErrInvalidDeck, c.ID)
		}
		counts[c.Content]++
	}
	for src, n := range counts {
		if n != 2 {
			return fmt.Errorf("%w: content %s appears %d times", ErrInvalidDeck, src, n)
		}
	}
	return nil
}

// PairCount returns the number of pairs in the deck.
func (d Deck) PairCount() int {
	return len(d) / 2
}

// BuildDeck builds a shuffled deck of pairs for a new memory game.
//
// The most recent drawings (newest first) are used first, then the fallback symbols in order.
// Repeated drawings or symbols are only used once, so if there isn't enough distinct content the
// deck holds fewer than pairCount pairs: every content value is always in exactly two cards.
//
// The rng is used for shuffling; if nil the global generator is used.
func BuildDeck(drawings []gallery.SavedDrawing, fallback []content.Source, pairCount int, rng *rand.Rand) Deck {
	if pairCount <= 0 {
		return Deck{}
	}

	seen := make(map[content.Source]bool, pairCount)
	sources := make([]content.Source, 0, pairCount)
	add := func(src content.Source) {
		if len(sources) < pairCount && !seen[src] {
			seen[src] = true
			sources = append(sources, src)
		}
	}
	for i := len(drawings) - 1; i >= 0 && len(sources) < pairCount; i-- {
		add(content.Image(drawings[i].ImageURL))
	}
	for _, src := range fallback {
		add(src)
	}

	deck := make(Deck, 0, 2*len(sources))
	for i, src := range sources {
		deck = append(deck,
			Card{ID: 2 * i, Content: src},
			Card{ID: 2*i + 1, Content: src},
		)
	}

	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}
