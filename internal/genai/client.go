// Package genai is a small client for the Gemini REST API, covering what the app generates:
// short stories read aloud with an illustration, colouring pages and character videos.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/janpfeifer/GoTales/internal/canvas"
	"k8s.io/klog/v2"
)

// Client calls the Gemini API. It is safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. The request timeout of the configuration is then
// not applied.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client. Missing fields of cfg take their defaults.
func New(cfg Config, opts ...Option) *Client {
	def := DefaultConfig()
	cfg.BaseURL = strings.TrimRight(cmpOr(cfg.BaseURL, def.BaseURL), "/")
	cfg.TextModel = cmpOr(cfg.TextModel, def.TextModel)
	cfg.TTSModel = cmpOr(cfg.TTSModel, def.TTSModel)
	cfg.ImageModel = cmpOr(cfg.ImageModel, def.ImageModel)
	cfg.VideoModel = cmpOr(cfg.VideoModel, def.VideoModel)
	cfg.Voice = cmpOr(cfg.Voice, def.Voice)
	if cfg.VideoPollInterval <= 0 {
		cfg.VideoPollInterval = def.VideoPollInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	c := &Client{cfg: cfg, http: &http.Client{Timeout: cfg.RequestTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	if cfg.APIKey == "" {
		klog.Warning("GEMINI_API_KEY not set: story, colouring page and video generation will fail.")
	}
	return c
}

func cmpOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Wire types of the generateContent endpoint.

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type contentBlock struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type generateContentRequest struct {
	Contents         []contentBlock    `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type candidate struct {
	Content      contentBlock `json:"content"`
	FinishReason string       `json:"finishReason,omitempty"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

// parts of the first candidate, nil if there is none.
func (r *generateContentResponse) parts() []part {
	if len(r.Candidates) == 0 {
		return nil
	}
	return r.Candidates[0].Content.Parts
}

// text concatenates the text parts of the first candidate.
func (r *generateContentResponse) text() string {
	var sb strings.Builder
	for _, p := range r.parts() {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}

// inline returns the first inline data part with the given media type prefix.
func (r *generateContentResponse) inline(mimePrefix string) *inlineData {
	for _, p := range r.parts() {
		if p.InlineData != nil && p.InlineData.Data != "" &&
			(p.InlineData.MimeType == "" || strings.HasPrefix(p.InlineData.MimeType, mimePrefix)) {
			return p.InlineData
		}
	}
	return nil
}

type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Wire types of the long-running video operations.

type videoInstance struct {
	Prompt string `json:"prompt"`
}

type videoParameters struct {
	AspectRatio    string `json:"aspectRatio,omitempty"`
	Resolution     string `json:"resolution,omitempty"`
	NumberOfVideos int    `json:"numberOfVideos,omitempty"`
}

type predictRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type operation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (op *operation) videoURI() string {
	if op.Response == nil {
		return ""
	}
	for _, s := range op.Response.GenerateVideoResponse.GeneratedSamples {
		if s.Video.URI != "" {
			return s.Video.URI
		}
	}
	return ""
}

// do sends a JSON request to path (relative to the API version root) and decodes the JSON answer
// into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.cfg.APIKey == "" {
		return ErrMissingAPIKey
	}
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("genai: encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+"/v1beta/"+path, body)
	if err != nil {
		return fmt.Errorf("genai: creating request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("genai: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	klog.V(1).Infof("genai: %s %s -> %s in %s", method, path, resp.Status, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("genai: reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
		var errBody apiErrorBody
		if json.Unmarshal(data, &errBody) == nil {
			apiErr.Message = errBody.Error.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("genai: decoding response: %w", err)
	}
	return nil
}

func (c *Client) generateContent(ctx context.Context, model string, req *generateContentRequest) (*generateContentResponse, error) {
	var resp generateContentResponse
	if err := c.do(ctx, http.MethodPost, "models/"+url.PathEscape(model)+":generateContent", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func textRequest(prompt string) *generateContentRequest {
	return &generateContentRequest{Contents: []contentBlock{{Role: "user", Parts: []part{{Text: prompt}}}}}
}

// GenerateText returns the text answer of the text model to prompt.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.generateContent(ctx, c.cfg.TextModel, textRequest(prompt))
	if err != nil {
		return "", err
	}
	return resp.text(), nil
}

// GenerateImage returns the first image of the image model's answer as a data URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := c.generateContent(ctx, c.cfg.ImageModel, textRequest(prompt))
	if err != nil {
		return "", err
	}
	img := resp.inline("image/")
	if img == nil {
		return "", ErrNoImage
	}
	return "data:" + cmpOr(img.MimeType, "image/png") + ";base64," + img.Data, nil
}

// Speak reads text aloud with the configured voice and returns the audio as a WAV data URL.
func (c *Client) Speak(ctx context.Context, text string) (string, error) {
	req := &generateContentRequest{
		Contents: []contentBlock{{Parts: []part{{Text: text}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{VoiceConfig: voiceConfig{
				PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: c.cfg.Voice},
			}},
		},
	}
	resp, err := c.generateContent(ctx, c.cfg.TTSModel, req)
	if err != nil {
		return "", err
	}
	audio := resp.inline("audio/")
	if audio == nil {
		return "", ErrNoAudio
	}
	_, pcm, err := canvas.DecodeDataURL("data:;base64," + audio.Data)
	if err != nil {
		return "", fmt.Errorf("genai: decoding audio: %w", err)
	}
	rate := sampleRate(audio.MimeType)
	return canvas.EncodeDataURL("audio/wav", WAV(pcm, rate, 1)), nil
}

// StartVideo starts a video generation and returns the name of the long-running operation.
func (c *Client) StartVideo(ctx context.Context, prompt string) (string, error) {
	req := &predictRequest{
		Instances:  []videoInstance{{Prompt: prompt}},
		Parameters: videoParameters{AspectRatio: "16:9", Resolution: "720p", NumberOfVideos: 1},
	}
	var op operation
	if err := c.do(ctx, http.MethodPost, "models/"+url.PathEscape(c.cfg.VideoModel)+":predictLongRunning", req, &op); err != nil {
		return "", err
	}
	if op.Name == "" {
		return "", fmt.Errorf("%w: no operation name", ErrVideoFailed)
	}
	return op.Name, nil
}

// WaitVideo polls the operation every VideoPollInterval until it is done and returns the video
// URI. It returns early with the context's error if ctx is cancelled.
//
// If progress is not nil, it is called after every poll that finds the operation still running.
func (c *Client) WaitVideo(ctx context.Context, name string, progress func(polls int)) (string, error) {
	ticker := time.NewTicker(c.cfg.VideoPollInterval)
	defer ticker.Stop()
	for polls := 1; ; polls++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
		var op operation
		if err := c.do(ctx, http.MethodGet, name, nil, &op); err != nil {
			return "", err
		}
		if !op.Done {
			klog.V(2).Infof("genai: video operation %s still running after %d polls", name, polls)
			if progress != nil {
				progress(polls)
			}
			continue
		}
		if op.Error != nil {
			return "", fmt.Errorf("%w: %s", ErrVideoFailed, op.Error.Message)
		}
		uri := op.videoURI()
		if uri == "" {
			return "", ErrVideoFailed
		}
		return uri, nil
	}
}

// FetchVideo downloads a generated video. The caller must close the returned body.
func (c *Client) FetchVideo(ctx context.Context, uri string) (*http.Response, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("genai: parsing video uri: %w", err)
	}
	// The download URL authenticates with a key parameter, which survives the redirect to the
	// storage host.
	q := u.Query()
	q.Set("key", c.cfg.APIKey)
	u.RawQuery = q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("genai: creating video request: %w", err)
	}
	// Videos can be longer to download than a regular request: the caller's context bounds it.
	hc := *c.http
	hc.Timeout = 0
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("genai: fetching video: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}

// IsVideoURI reports whether uri points to the configured API, so that a server proxying videos
// never sends the API key elsewhere.
func (c *Client) IsVideoURI(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil {
		return false
	}
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return false
	}
	return u.Scheme == base.Scheme && u.Host == base.Host
}
