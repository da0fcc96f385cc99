package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/janpfeifer/GoTales/internal/api"
	"github.com/janpfeifer/GoTales/internal/game"
	"github.com/janpfeifer/GoTales/internal/genai"
	"k8s.io/klog/v2"
)

func (s *Server) mountAPI(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Post(api.PathStory, s.handleStory)
		r.Post(api.PathColoringPage, s.handleColoringPage)
	})
	r.Get(api.PathVideoSocket, s.handleVideoSocket)
	r.Get(api.PathVideoContent, s.handleVideoContent)
}

// characterRequest binds an api.CharacterRequest to a known character.
type characterRequest struct {
	api.CharacterRequest
	character *game.Character
}

// Bind implements render.Binder.
func (req *characterRequest) Bind(*http.Request) error {
	req.character = game.CharacterByID(req.Character)
	if req.character == nil {
		return fmt.Errorf("unknown character %q", req.Character)
	}
	return nil
}

func renderError(w http.ResponseWriter, r *http.Request, status int, err error) {
	render.Status(r, status)
	render.JSON(w, r, api.ErrorResponse{Error: err.Error()})
}

// statusOf maps generation errors to HTTP statuses.
func statusOf(err error) int {
	var apiErr *genai.APIError
	switch {
	case errors.Is(err, genai.ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr), errors.Is(err, genai.ErrNoImage), errors.Is(err, genai.ErrVideoFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleStory(w http.ResponseWriter, r *http.Request) {
	req := &characterRequest{}
	if err := render.Bind(r, req); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	story, err := s.gemini.Story(r.Context(), *req.character)
	if err != nil {
		klog.Errorf("Story for %s failed: %v", req.character.ID, err)
		renderError(w, r, statusOf(err), err)
		return
	}
	render.JSON(w, r, api.StoryResponse{Text: story.Text, AudioURL: story.AudioURL, ImageURL: story.ImageURL})
}

func (s *Server) handleColoringPage(w http.ResponseWriter, r *http.Request) {
	req := &characterRequest{}
	if err := render.Bind(r, req); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	page, err := s.gemini.ColoringPage(r.Context(), *req.character)
	if err != nil {
		klog.Errorf("Coloring page for %s failed: %v", req.character.ID, err)
		renderError(w, r, statusOf(err), err)
		return
	}
	render.JSON(w, r, api.ColoringPageResponse{ImageURL: page})
}

// handleVideoSocket serves one video request: the client sends a MsgTypeVideo message, the server
// answers with progress messages while the video renders and finally a done or error message.
func (s *Server) handleVideoSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		klog.Errorf("Video socket: accept failed: %v", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()

	ctx := r.Context()
	send := func(msgType api.MessageType, payload any) error {
		msg, err := api.NewWsMessage(msgType, payload)
		if err != nil {
			return err
		}
		return wsjson.Write(ctx, conn, msg)
	}
	fail := func(err error) {
		if err := send(api.MsgTypeError, api.ErrorMessage{Message: err.Error()}); err != nil {
			klog.V(1).Infof("Video socket: failed to report error: %v", err)
			return
		}
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}

	var msg api.WsMessage
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		klog.Errorf("Video socket: read error: %v", err)
		return
	}
	p, err := msg.Parse()
	if err != nil {
		fail(err)
		return
	}
	req, ok := p.(*api.VideoMessage)
	if !ok {
		fail(fmt.Errorf("expected a video request, got %q", msg.Type))
		return
	}
	ch := game.CharacterByID(req.Character)
	if ch == nil {
		fail(fmt.Errorf("unknown character %q", req.Character))
		return
	}

	// From now on the client only listens: reading in the background detects when it goes away,
	// cancelling the generation.
	ctx = conn.CloseRead(ctx)
	start := time.Now()
	uri, err := s.gemini.Video(ctx, *ch, func(polls int) {
		if err := send(api.MsgTypeProgress, api.ProgressMessage{Polls: polls, Elapsed: time.Since(start).Milliseconds()}); err != nil {
			klog.V(1).Infof("Video socket: failed to send progress: %v", err)
		}
	})
	if err != nil {
		klog.Errorf("Video for %s failed after %s: %v", ch.ID, time.Since(start), err)
		fail(err)
		return
	}
	klog.Infof("Video for %s ready in %s", ch.ID, time.Since(start))
	if err := send(api.MsgTypeDone, api.DoneMessage{URL: api.PathVideoContent + "?uri=" + url.QueryEscape(uri)}); err != nil {
		klog.Errorf("Video socket: failed to send result: %v", err)
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

// handleVideoContent streams a generated video, adding the API key the browser does not have.
func (s *Server) handleVideoContent(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if !s.gemini.IsVideoURI(uri) {
		renderError(w, r, http.StatusBadRequest, errors.New("not a generated video"))
		return
	}
	resp, err := s.gemini.FetchVideo(r.Context(), uri)
	if err != nil {
		klog.Errorf("Video download failed: %v", err)
		renderError(w, r, statusOf(err), err)
		return
	}
	defer func() { _ = resp.Body.Close() }()
	for _, key := range []string{"Content-Type", "Content-Length"} {
		if v := resp.Header.Get(key); v != "" {
			w.Header().Set(key, v)
		}
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "video/mp4")
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		klog.V(1).Infof("Video download interrupted: %v", err)
	}
}
