package frontend

import (
	"fmt"

	"github.com/janpfeifer/GoTales/internal/api"
	"github.com/janpfeifer/GoTales/internal/config"
	"github.com/janpfeifer/GoTales/internal/gallery"
	"github.com/janpfeifer/GoTales/internal/game"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// Mode is the activity shown once a character is picked.
type Mode int

const (
	ModeStory Mode = iota
	ModeGame
	ModeColoring
	ModeVideo
)

// Modes in navigation order.
var Modes = []Mode{ModeStory, ModeGame, ModeColoring, ModeVideo}

func (m Mode) String() string {
	switch m {
	case ModeStory:
		return "Story"
	case ModeGame:
		return "Game"
	case ModeColoring:
		return "Coloring"
	case ModeVideo:
		return "Video"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Label is the navigation text of the mode.
func (m Mode) Label() string {
	switch m {
	case ModeStory:
		return "📖 Masal"
	case ModeGame:
		return "🃏 Oyun"
	case ModeColoring:
		return "🎨 Boya"
	case ModeVideo:
		return "🎬 Video"
	default:
		return m.String()
	}
}

// Notices shown to the child.
const (
	NoticeConnection  = "Bağlantı hatası. Lütfen tekrar dene!"
	NoticeImageFailed = "Resim oluşturulamadı. Lütfen tekrar dene."
	NoticeSaved       = "Resim kaydedildi!"
)

// GlobalClientState holds everything the components share: the lock, the picked character and
// mode, the session gallery and the connection to the server.
type GlobalClientState struct {
	Config  config.Client
	API     *api.Client
	Lock    *game.Lock
	Gallery *gallery.Store

	Character *game.Character
	Mode      Mode
	Notice    string

	// SoundEnabled controls whether stories are read aloud automatically.
	SoundEnabled bool

	// Listeners for state updates
	Listeners map[string]func()
}

var State *GlobalClientState

// NewState creates the state of a fresh session.
func NewState(cfg config.Client, client *api.Client) *GlobalClientState {
	s := &GlobalClientState{
		Config:       cfg,
		API:          client,
		Gallery:      gallery.New(gallery.WithCapacity(cfg.Canvas.GalleryCapacity)),
		SoundEnabled: true,
		Listeners:    make(map[string]func()),
	}
	s.Lock = game.NewLock(game.LockKeypad, cfg.Game.LockLength, cfg.Game.Timing(), nil, func(status game.LockStatus) {
		klog.V(1).Infof("Lock status: %s", status)
		s.Notify()
	})
	return s
}

// InitState creates the global state, with the client configuration the server handed over.
func InitState() {
	if State != nil {
		klog.V(1).Infof("InitState: state already exists")
		return
	}
	cfg, err := config.DecodeClient(app.Getenv(config.ClientEnvKey))
	if err != nil {
		klog.Errorf("InitState: using default configuration: %v", err)
	}
	baseURL := ""
	if !app.IsServer {
		u := app.Window().URL()
		baseURL = u.Scheme + "://" + u.Host
	}
	klog.V(1).Infof("InitState: creating new state (server %q)", baseURL)
	State = NewState(cfg, api.NewClient(baseURL))
}

// Notify calls every listener.
func (s *GlobalClientState) Notify() {
	klog.V(2).Infof("GlobalClientState: Notifying %d listeners", len(s.Listeners))
	for _, l := range s.Listeners {
		if l != nil {
			l()
		}
	}
}

// Unlocked reports whether the picture lock was passed.
func (s *GlobalClientState) Unlocked() bool {
	return s.Lock.Status() == game.LockUnlocked
}

// SelectCharacter starts the session with ch, on its story.
func (s *GlobalClientState) SelectCharacter(ch *game.Character) {
	klog.Infof("Character selected: %s", ch.ID)
	s.Character = ch
	s.Mode = ModeStory
	s.Notice = ""
	s.Notify()
}

// ClearCharacter goes back to the character selection.
func (s *GlobalClientState) ClearCharacter() {
	s.Character = nil
	s.Mode = ModeStory
	s.Notify()
}

// SetMode switches the activity. It is ignored without a character.
func (s *GlobalClientState) SetMode(m Mode) {
	if s.Character == nil || s.Mode == m {
		return
	}
	klog.V(1).Infof("Mode: %s -> %s", s.Mode, m)
	s.Mode = m
	s.Notice = ""
	s.Notify()
}

// Logout locks the app again and forgets the character. The drawings of the session are kept.
func (s *GlobalClientState) Logout() {
	klog.Infof("Logout (%d drawings kept)", s.Gallery.Len())
	s.Character = nil
	s.Mode = ModeStory
	s.Notice = ""
	s.Lock.Reset()
}

// ShowNotice displays a dismissible message.
func (s *GlobalClientState) ShowNotice(msg string) {
	s.Notice = msg
	s.Notify()
}

// DismissNotice hides the current message.
func (s *GlobalClientState) DismissNotice() {
	if s.Notice == "" {
		return
	}
	s.Notice = ""
	s.Notify()
}

func (s *GlobalClientState) ToggleSound() {
	s.SoundEnabled = !s.SoundEnabled
	klog.Infof("ToggleSound: SoundEnabled is now %v", s.SoundEnabled)
	s.Notify()
}

// PlaySound plays url (usually a data URL) once, and returns the audio element so it can be
// stopped with StopSound.
func (s *GlobalClientState) PlaySound(url string) app.Value {
	audio := app.Window().Get("document").Call("createElement", "audio")
	audio.Set("src", url)

	// Play the sound (fire and forget)
	promise := audio.Call("play")
	if promise.Truthy() {
		promise.Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
			klog.Errorf("PlaySound: Failed to play: %v", args[0])
			return nil
		}))
	}
	return audio
}

// StopSound stops an audio element returned by PlaySound.
func StopSound(audio app.Value) {
	if audio != nil && audio.Truthy() {
		audio.Call("pause")
	}
}
