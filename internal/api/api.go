// Package api defines the HTTP and WebSocket interface between the GoTales server and the
// browser client, and the client side of it.
package api

// Endpoints served by the server.
const (
	PathStory        = "/api/story"
	PathColoringPage = "/api/coloring-page"
	PathVideoSocket  = "/api/video/ws"
	PathVideoContent = "/api/video/content"
)

// CharacterRequest is the body of the generation requests.
type CharacterRequest struct {
	Character string `json:"character"`
}

// StoryResponse is the answer to PathStory. AudioURL and ImageURL may be empty when only the
// text could be generated.
type StoryResponse struct {
	Text     string `json:"text"`
	AudioURL string `json:"audio_url,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// ColoringPageResponse is the answer to PathColoringPage.
type ColoringPageResponse struct {
	ImageURL string `json:"image_url"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
