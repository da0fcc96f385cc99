package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"k8s.io/klog/v2"
)

// Error is a failed API call.
type Error struct {
	StatusCode int // 0 for errors reported over the video socket.
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return "api: " + e.Message
	}
	return fmt.Sprintf("api: %d: %s", e.StatusCode, e.Message)
}

// Client calls the GoTales server. In the browser BaseURL is the page's origin.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: http.DefaultClient}
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("api: POST %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api: reading %s response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := &Error{StatusCode: resp.StatusCode, Message: resp.Status}
		var errResp ErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		}
		return apiErr
	}
	return json.Unmarshal(data, out)
}

// Story asks for a new story about the character.
func (c *Client) Story(ctx context.Context, characterID string) (*StoryResponse, error) {
	var story StoryResponse
	if err := c.post(ctx, PathStory, CharacterRequest{Character: characterID}, &story); err != nil {
		return nil, err
	}
	return &story, nil
}

// ColoringPage asks for a line-art page of the character and returns it as a data URL.
func (c *Client) ColoringPage(ctx context.Context, characterID string) (string, error) {
	var page ColoringPageResponse
	if err := c.post(ctx, PathColoringPage, CharacterRequest{Character: characterID}, &page); err != nil {
		return "", err
	}
	return page.ImageURL, nil
}

// Video asks for a video of the character over the video socket and waits, possibly minutes,
// until it is ready. It returns the URL to play it from. progress, if not nil, is called with every
// progress report of the server.
func (c *Client) Video(ctx context.Context, characterID string, progress func(ProgressMessage)) (string, error) {
	wsURL := "ws" + strings.TrimPrefix(c.BaseURL, "http") + PathVideoSocket
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return "", fmt.Errorf("api: dial %s failed: %w", wsURL, err)
	}
	defer func() { _ = conn.CloseNow() }()

	req, err := NewWsMessage(MsgTypeVideo, VideoMessage{Character: characterID})
	if err != nil {
		return "", err
	}
	if err := wsjson.Write(ctx, conn, req); err != nil {
		return "", fmt.Errorf("api: failed to send video request: %w", err)
	}

	for {
		var msg WsMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return "", fmt.Errorf("api: video socket read error: %w", err)
		}
		p, err := msg.Parse()
		if err != nil {
			klog.Errorf("Video: failed to parse %q message: %v", msg.Type, err)
			continue
		}
		switch m := p.(type) {
		case *ProgressMessage:
			klog.V(1).Infof("Video: still rendering after %d polls", m.Polls)
			if progress != nil {
				progress(*m)
			}
		case *DoneMessage:
			_ = conn.Close(websocket.StatusNormalClosure, "")
			if m.URL == "" {
				return "", errors.New("api: video ready without a URL")
			}
			if strings.HasPrefix(m.URL, "/") {
				return c.BaseURL + m.URL, nil
			}
			return m.URL, nil
		case *ErrorMessage:
			return "", &Error{Message: m.Message}
		default:
			klog.Warningf("Video: unexpected %q message", msg.Type)
		}
	}
}
