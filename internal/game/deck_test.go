package game

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/janpfeifer/GoTales/internal/content"
	"github.com/janpfeifer/GoTales/internal/gallery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drawings(n int) []gallery.SavedDrawing {
	ds := make([]gallery.SavedDrawing, n)
	for i := range ds {
		ds[i] = gallery.SavedDrawing{
			ID:       fmt.Sprintf("d%d", i),
			ImageURL: fmt.Sprintf("data:image/png;base64,drawing-%d", i),
			Date:     time.Unix(int64(i), 0),
		}
	}
	return ds
}

func contentCounts(deck Deck) map[content.Source]int {
	counts := make(map[content.Source]int)
	for _, c := range deck {
		counts[c.Content]++
	}
	return counts
}

func TestBuildDeckInvariants(t *testing.T) {
	for numDrawings := 0; numDrawings <= 8; numDrawings++ {
		t.Run(fmt.Sprintf("%d-drawings", numDrawings), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(uint64(numDrawings), 7))
			deck := BuildDeck(drawings(numDrawings), FallbackSymbols(), DefaultPairCount, rng)

			// 4 fallback symbols always cover the 6 pairs once there are 2 drawings.
			wantPairs := min(DefaultPairCount, numDrawings+len(Characters))
			require.Len(t, deck, 2*wantPairs)
			require.NoError(t, deck.Validate())
			for src, n := range contentCounts(deck) {
				assert.Equal(t, 2, n, "content %s", src)
			}
		})
	}
}

func TestBuildDeckPrefersRecentDrawings(t *testing.T) {
	deck := BuildDeck(drawings(10), FallbackSymbols(), 6, nil)
	require.Len(t, deck, 12)

	counts := contentCounts(deck)
	for i := 4; i < 10; i++ {
		assert.Equal(t, 2, counts[content.Image(fmt.Sprintf("data:image/png;base64,drawing-%d", i))], "drawing %d", i)
	}
	for i := 0; i < 4; i++ {
		assert.Zero(t, counts[content.Image(fmt.Sprintf("data:image/png;base64,drawing-%d", i))], "drawing %d", i)
	}
	for _, c := range deck {
		assert.True(t, c.Content.IsImage())
	}
}

func TestBuildDeckFillsWithFallbackInOrder(t *testing.T) {
	deck := BuildDeck(drawings(3), FallbackSymbols(), 6, nil)
	require.Len(t, deck, 12)

	counts := contentCounts(deck)
	// Three drawings, then the first three characters' emoji: the cat is left out.
	for _, glyph := range []string{"🤖", "🧚‍♀️", "🦖"} {
		assert.Equal(t, 2, counts[content.Symbol(glyph)], glyph)
	}
	assert.Zero(t, counts[content.Symbol("🐱")])
}

func TestBuildDeckFallbackOverflowIsCapped(t *testing.T) {
	fallback := []content.Source{content.Symbol("🤖"), content.Symbol("🧚"), content.Symbol("🦖"), content.Symbol("🐱")}
	deck := BuildDeck(nil, fallback, 6, nil)

	// Only 4 distinct contents are available: 4 pairs, never two pairs showing the same glyph.
	require.Len(t, deck, 8)
	require.NoError(t, deck.Validate())
	for _, src := range fallback {
		assert.Equal(t, 2, contentCounts(deck)[src])
	}
}

func TestBuildDeckSkipsDuplicateContent(t *testing.T) {
	ds := drawings(2)
	ds = append(ds, ds[1]) // Same image saved twice.
	fallback := []content.Source{content.Symbol("🤖"), content.Symbol("🤖"), content.Symbol("🦖")}
	deck := BuildDeck(ds, fallback, 6, nil)

	require.Len(t, deck, 8)
	require.NoError(t, deck.Validate())
}

func TestBuildDeckIDsAndState(t *testing.T) {
	deck := BuildDeck(drawings(1), FallbackSymbols(), 6, nil)
	byID := make(map[int]Card)
	for _, c := range deck {
		byID[c.ID] = c
		assert.Equal(t, FaceDown, c.State())
	}
	require.Len(t, byID, 12)
	for i := 0; i < 6; i++ {
		assert.Equal(t, byID[2*i].Content, byID[2*i+1].Content, "pair %d", i)
	}
}

func TestBuildDeckShuffles(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	identity := 0
	for range 50 {
		deck := BuildDeck(nil, FallbackSymbols(), 4, rng)
		inOrder := true
		for i, c := range deck {
			if c.ID != i {
				inOrder = false
				break
			}
		}
		if inOrder {
			identity++
		}
	}
	assert.Less(t, identity, 5, "decks should not come out in dealing order")
}

func TestBuildDeckNoPairs(t *testing.T) {
	assert.Empty(t, BuildDeck(drawings(3), FallbackSymbols(), 0, nil))
	assert.Empty(t, BuildDeck(nil, nil, 6, nil))
}

func TestDeckValidate(t *testing.T) {
	a, b := content.Symbol("a"), content.Symbol("b")
	assert.ErrorIs(t, Deck{}.Validate(), ErrEmptyDeck)
	assert.ErrorIs(t, Deck{{ID: 0, Content: a}}.Validate(), ErrInvalidDeck)
	assert.ErrorIs(t, Deck{{ID: 0, Content: a}, {ID: 0, Content: a}}.Validate(), ErrInvalidDeck)
	assert.ErrorIs(t, Deck{{ID: 0, Content: a}, {ID: 1, Content: b}}.Validate(), ErrInvalidDeck)
	assert.ErrorIs(t, Deck{{ID: 0, Content: a, Flipped: true}, {ID: 1, Content: a}}.Validate(), ErrInvalidDeck)
	assert.NoError(t, Deck{{ID: 0, Content: a}, {ID: 1, Content: a}}.Validate())
}

func TestCharacterByID(t *testing.T) {
	require.NotNil(t, CharacterByID("dino"))
	assert.Equal(t, "🦖", CharacterByID("dino").Emoji)
	assert.Nil(t, CharacterByID("dragon"))
	assert.Len(t, FallbackSymbols(), len(Characters))
}
