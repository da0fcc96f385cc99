package frontend

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

type TopBar struct {
	app.Compo
}

func (t *TopBar) onToggleSound(ctx app.Context, e app.Event) {
	e.PreventDefault()
	State.ToggleSound()
}

func (t *TopBar) onLogout(ctx app.Context, e app.Event) {
	e.PreventDefault()
	State.Logout()
}

func (t *TopBar) onBannerClick(ctx app.Context, e app.Event) {
	State.ClearCharacter()
}

func (t *TopBar) Render() app.UI {
	soundIcon := "🔊"
	if !State.SoundEnabled {
		soundIcon = "🔇"
	}

	var modes []app.UI
	if State.Character != nil {
		for _, m := range Modes {
			link := app.A().
				Href("#").
				OnClick(func(ctx app.Context, e app.Event) {
					e.PreventDefault()
					State.SetMode(m)
				}).
				Text(m.Label())
			if m == State.Mode {
				link = link.Aria("current", "page")
			}
			modes = append(modes, app.Li().Body(link))
		}
	}

	actions := []app.UI{
		app.Li().Body(
			app.A().
				Href("#").
				OnClick(t.onToggleSound).
				Style("text-decoration", "none").
				Body(
					app.Span().
						Class("sound-icon").
						Style("font-family", "system-ui").
						Text(soundIcon),
				),
		),
	}
	if ch := State.Character; ch != nil {
		actions = append(actions, app.Li().Body(
			app.Span().
				Class("character-badge").
				Style("background-color", ch.Color).
				Text(ch.Emoji+" "+ch.Name),
		))
	}
	actions = append(actions, app.Li().Body(app.A().Href("#").OnClick(t.onLogout).Text("Çıkış")))

	return app.Nav().Body(
		app.Ul().Body(
			app.Li().Body(
				app.Strong().
					Style("cursor", "pointer").
					OnClick(t.onBannerClick).
					Text("🦉 Bilge Baykuş"),
			),
		),
		app.Ul().Body(modes...),
		app.Ul().Body(actions...),
	)
}

// NoticeBar shows State.Notice until it is dismissed.
type NoticeBar struct {
	app.Compo
}

func (n *NoticeBar) Render() app.UI {
	if State.Notice == "" {
		return app.Div().Class("notice-empty")
	}
	return app.Div().Class("notice").Attr("role", "alert").Body(
		app.Span().Text(State.Notice),
		app.Button().
			Class("outline").
			OnClick(func(ctx app.Context, e app.Event) {
				State.DismissNotice()
			}).
			Text("Tamam"),
	)
}
