package frontend

import (
	"github.com/janpfeifer/GoTales/internal/game"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// RegisterRoutes registers the app's pages, on both the server (for prerendering) and the browser.
func RegisterRoutes() {
	// Root route handles the lock, the character selection and every mode
	app.Route("/", func() app.Composer { return &Home{} })
}

// Home is the single page of the app: it shows the lock until it is passed, then the
// character selection, then the selected mode.
type Home struct {
	app.Compo
}

func (h *Home) OnMount(ctx app.Context) {
	klog.V(1).Infof("Home: OnMount called")
	State.Listeners["home"] = func() {
		ctx.Dispatch(func(ctx app.Context) {})
	}
}

func (h *Home) OnDismount() {
	delete(State.Listeners, "home")
}

func (h *Home) OnAppUpdate(ctx app.Context) {
	if State.Character != nil {
		klog.Infof("Home component: App update available, not reloading while a character is active")
		return
	}
	klog.Infof("Home component: App update available, reloading...")
	ctx.Reload()
}

func (h *Home) Render() app.UI {
	if !State.Unlocked() {
		return &Login{}
	}
	if State.Character == nil {
		return app.Main().Class("container").Body(
			&TopBar{},
			&NoticeBar{},
			&CharacterSelect{},
		)
	}

	var mode app.UI
	switch State.Mode {
	case ModeGame:
		mode = &GameMode{}
	case ModeColoring:
		mode = &ColoringMode{}
	case ModeVideo:
		mode = &VideoMode{}
	default:
		mode = &StoryMode{}
	}
	return app.Main().Class("container").Body(
		&TopBar{},
		&NoticeBar{},
		mode,
	)
}

// CharacterSelect lists the characters to pick from.
type CharacterSelect struct {
	app.Compo
}

func (c *CharacterSelect) Render() app.UI {
	var cards []app.UI
	for i := range game.Characters {
		ch := &game.Characters[i]
		cards = append(cards, app.Button().
			Class("character-card").
			Style("background-color", ch.Color).
			DataSet("id", ch.ID).
			OnClick(func(ctx app.Context, e app.Event) {
				State.SelectCharacter(ch)
			}).
			Body(
				app.Span().Class("character-emoji").Text(ch.Emoji),
				app.Strong().Text(ch.Name),
				app.Small().Text(ch.Description),
			))
	}
	return app.Article().Body(
		app.Header().Body(
			app.H2().Text("Bugün kiminle macera yaşamak istersin?"),
		),
		app.Div().Class("character-grid").Body(cards...),
	)
}
