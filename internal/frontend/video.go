package frontend

import (
	"context"
	"fmt"
	"time"

	"github.com/janpfeifer/GoTales/internal/api"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// VideoMode makes a short clip of the selected character. Rendering takes minutes, the server
// reports progress over the video socket meanwhile.
type VideoMode struct {
	app.Compo

	loading  bool
	progress api.ProgressMessage
	url      string
	cancel   context.CancelFunc
}

func (v *VideoMode) OnDismount() {
	if v.cancel != nil {
		v.cancel()
	}
}

func (v *VideoMode) onGenerate(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if State.Character == nil || v.loading {
		return
	}
	character := State.Character.ID
	v.loading = true
	v.url = ""
	v.progress = api.ProgressMessage{}
	reqCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	ctx.Async(func() {
		url, err := State.API.Video(reqCtx, character, func(p api.ProgressMessage) {
			ctx.Dispatch(func(ctx app.Context) {
				v.progress = p
			})
		})
		ctx.Dispatch(func(ctx app.Context) {
			v.loading = false
			if err != nil {
				if reqCtx.Err() == nil {
					klog.Errorf("VideoMode: video for %s failed: %v", character, err)
					State.ShowNotice(NoticeConnection)
				}
				return
			}
			v.url = url
		})
	})
}

func (v *VideoMode) Render() app.UI {
	ch := State.Character
	if ch == nil {
		return app.Div()
	}
	header := app.Header().Body(
		app.H2().Text(ch.Emoji + " " + ch.Name + " Videosu"),
	)
	switch {
	case v.loading:
		elapsed := (time.Duration(v.progress.Elapsed) * time.Millisecond).Round(time.Second)
		return app.Article().Body(
			header,
			app.Div().Aria("busy", "true").Text("Video hazırlanıyor, bu biraz sürebilir..."),
			app.Small().Text(fmt.Sprintf("Geçen süre: %s", elapsed)),
		)
	case v.url != "":
		return app.Article().Body(
			header,
			app.Video().Class("character-video").Src(v.url).Controls(true).AutoPlay(true),
			app.Footer().Body(
				app.Button().Class("secondary").OnClick(v.onGenerate).Text("Yeni Video"),
			),
		)
	default:
		return app.Article().Body(
			header,
			app.P().Text(ch.Name + " sana el sallasın mı?"),
			app.Button().OnClick(v.onGenerate).Text("Video Oluştur"),
		)
	}
}
