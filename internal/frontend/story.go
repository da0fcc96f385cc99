package frontend

import (
	"context"

	"github.com/janpfeifer/GoTales/internal/api"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// StoryMode tells a new story about the selected character: text, narration and illustration.
type StoryMode struct {
	app.Compo

	character string
	loading   bool
	story     *api.StoryResponse
	audio     app.Value
	cancel    context.CancelFunc
}

func (s *StoryMode) OnMount(ctx app.Context) {
	s.generate(ctx)
}

func (s *StoryMode) OnDismount() {
	if s.cancel != nil {
		s.cancel()
	}
	StopSound(s.audio)
}

func (s *StoryMode) generate(ctx app.Context) {
	if State.Character == nil || s.loading {
		return
	}
	StopSound(s.audio)
	s.audio = nil
	s.character = State.Character.ID
	s.loading = true
	s.story = nil
	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	character := s.character
	ctx.Async(func() {
		story, err := State.API.Story(reqCtx, character)
		ctx.Dispatch(func(ctx app.Context) {
			s.loading = false
			if err != nil {
				klog.Errorf("StoryMode: story for %s failed: %v", character, err)
				State.ShowNotice(NoticeConnection)
				return
			}
			s.story = story
			if story.AudioURL != "" && State.SoundEnabled {
				s.audio = State.PlaySound(story.AudioURL)
			}
		})
	})
}

func (s *StoryMode) onNewStory(ctx app.Context, e app.Event) {
	e.PreventDefault()
	s.generate(ctx)
}

func (s *StoryMode) onListen(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if s.story == nil || s.story.AudioURL == "" {
		return
	}
	StopSound(s.audio)
	s.audio = State.PlaySound(s.story.AudioURL)
}

func (s *StoryMode) Render() app.UI {
	ch := State.Character
	if ch == nil {
		return app.Div()
	}
	header := app.Header().Body(
		app.H2().Text(ch.Emoji + " " + ch.Name + " ile Masal Zamanı"),
	)
	if s.loading {
		return app.Article().Body(
			header,
			app.Div().Aria("busy", "true").Text("Bilge Baykuş masalını düşünüyor..."),
		)
	}
	if s.story == nil {
		return app.Article().Body(
			header,
			app.Button().OnClick(s.onNewStory).Text("Masal Anlat"),
		)
	}

	var picture app.UI = app.Div().Class("story-picture-empty").Text(ch.Emoji)
	if s.story.ImageURL != "" {
		picture = app.Img().Class("story-picture").Src(s.story.ImageURL).Alt(ch.Name)
	}
	actions := []app.UI{
		app.Button().Class("secondary").OnClick(s.onNewStory).Text("Yeni Masal"),
	}
	if s.story.AudioURL != "" {
		actions = append([]app.UI{app.Button().OnClick(s.onListen).Text("🔊 Dinle")}, actions...)
	}
	return app.Article().Body(
		header,
		picture,
		app.P().Class("story-text").Text(s.story.Text),
		app.Footer().Body(actions...),
	)
}
