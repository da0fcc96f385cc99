package frontend

import (
	"github.com/janpfeifer/GoTales/internal/game"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// Login is the picture lock: the child presses the pictures shown, in order.
type Login struct {
	app.Compo
}

func (l *Login) OnMount(ctx app.Context) {
	klog.V(1).Infof("Login: OnMount called")
	State.Listeners["login"] = func() {
		ctx.Dispatch(func(ctx app.Context) {})
	}
}

func (l *Login) OnDismount() {
	delete(State.Listeners, "login")
}

func (l *Login) onPress(ctx app.Context, e app.Event) {
	e.PreventDefault()
	item := ctx.JSSrc().Get("dataset").Get("item").String()
	if !State.Lock.Press(item) {
		klog.V(2).Infof("Login: press of %q ignored", item)
		return
	}
	// Completing the sequence notifies the listeners, intermediate presses don't.
	ctx.Update()
}

func (l *Login) Render() app.UI {
	target := State.Lock.Target()
	input := State.Lock.Input()
	status := State.Lock.Status()

	var slots []app.UI
	for i := range target {
		var text string
		if i < len(input) {
			text = input[i]
		}
		class := "lock-slot"
		switch status {
		case game.LockFailed:
			class += " lock-failed"
		case game.LockUnlocking, game.LockUnlocked:
			class += " lock-ok"
		}
		slots = append(slots, app.Span().Class(class).Text(text))
	}

	var keys []app.UI
	for _, item := range State.Lock.Keypad() {
		keys = append(keys, app.Button().
			Class("lock-key").
			DataSet("item", item).
			Disabled(status != game.LockEntering).
			OnClick(l.onPress).
			Text(item))
	}

	var message app.UI = app.P().Class("lock-message").Text("Şifreyi gir:")
	switch status {
	case game.LockFailed:
		message = app.P().Class("lock-message lock-failed").Text("Yanlış şifre! Tekrar dene.")
	case game.LockUnlocking, game.LockUnlocked:
		message = app.P().Class("lock-message lock-ok").Text("Harika! Giriş yapılıyor...")
	}

	var hint []app.UI
	for _, item := range target {
		hint = append(hint, app.Span().Text(item))
	}

	return app.Main().Class("container").Body(
		app.Article().Class("lock").Body(
			app.Header().Body(
				app.Div().Style("text-align", "center").Body(
					app.Span().Class("owl").Text("🦉"),
					app.H1().Text("Bilge Baykuş"),
				),
			),
			app.Div().Class("lock-hint").Body(hint...),
			message,
			app.Div().Class("lock-slots").Body(slots...),
			app.Div().Class("lock-keypad").Body(keys...),
		),
	)
}
