package frontend

import (
	"fmt"
	"strconv"

	"github.com/janpfeifer/GoTales/internal/game"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// GameMode is the memory board. Its deck is built from the session's drawings, newest first,
// topped up with the characters' emoji.
type GameMode struct {
	app.Compo

	engine  *game.Engine
	cards   []game.Card
	matched int
	won     bool
}

func (g *GameMode) OnMount(ctx app.Context) {
	klog.Infof("GameMode: OnMount called")
	g.engine = game.NewEngine(State.Config.Game.Timing(), func(ev game.Event) {
		// Deferred events come from timer goroutines.
		ctx.Dispatch(func(ctx app.Context) {
			g.onEvent(ev)
		})
	})
	g.newGame()
}

func (g *GameMode) OnDismount() {
	klog.Infof("GameMode: OnDismount called")
	if g.engine != nil {
		g.engine.Close()
	}
}

func (g *GameMode) newGame() {
	drawings := State.Gallery.SavedDrawings()
	deck := game.BuildDeck(drawings, game.FallbackSymbols(), State.Config.Game.PairCount, nil)
	klog.Infof("GameMode: new game with %d pairs (%d drawings in the gallery)", deck.PairCount(), len(drawings))
	if err := g.engine.StartNewGame(deck); err != nil {
		klog.Errorf("GameMode: %v", err)
		State.ShowNotice(err.Error())
	}
}

func (g *GameMode) onEvent(ev game.Event) {
	klog.V(1).Infof("GameMode: event %s %v, %d pairs matched", ev.Kind, ev.CardIDs, ev.MatchedPairs)
	g.cards = g.engine.Cards()
	g.matched = g.engine.MatchedPairs()
	switch ev.Kind {
	case game.EventNewGame:
		g.won = false
	case game.EventWon:
		g.won = true
	}
}

func (g *GameMode) onCardClick(ctx app.Context, e app.Event) {
	id, err := strconv.Atoi(ctx.JSSrc().Get("dataset").Get("id").String())
	if err != nil {
		return
	}
	g.engine.Flip(id)
}

func (g *GameMode) onNewGame(ctx app.Context, e app.Event) {
	e.PreventDefault()
	g.newGame()
}

func (g *GameMode) renderCard(c game.Card) app.UI {
	button := app.Button().
		Class("memory-card", "memory-card-"+c.State().String()).
		DataSet("id", strconv.Itoa(c.ID)).
		OnClick(g.onCardClick)
	if !c.Flipped {
		return button.Body(app.Span().Class("memory-card-back").Text("❓"))
	}
	if c.Content.IsImage() {
		return button.Body(app.Img().Src(c.Content.Value).Alt("Resmin"))
	}
	return button.Body(app.Span().Class("memory-card-symbol").Text(c.Content.Value))
}

func (g *GameMode) Render() app.UI {
	var cards []app.UI
	for _, c := range g.cards {
		cards = append(cards, g.renderCard(c))
	}

	pairs := len(g.cards) / 2
	var banner app.UI = app.P().Class("memory-score").Text(fmt.Sprintf("Bulunan çiftler: %d / %d", g.matched, pairs))
	if g.won {
		banner = app.Div().Class("memory-won").Body(
			app.H2().Text("🎉 Tebrikler! Hepsini buldun!"),
			app.Button().OnClick(g.onNewGame).Text("Tekrar Oyna"),
		)
	}

	return app.Article().Body(
		app.Header().Body(
			app.H2().Text("Hafıza Oyunu"),
			app.Small().Text("Aynı resimleri bul!"),
		),
		banner,
		app.Div().Class("memory-board").Body(cards...),
		app.Footer().Body(
			app.Button().Class("secondary").OnClick(g.onNewGame).Text("Yeni Oyun"),
		),
	)
}
