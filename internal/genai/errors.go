package genai

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned by every call when no API key is configured.
	ErrMissingAPIKey = errors.New("genai: GEMINI_API_KEY not configured")

	// ErrNoImage is returned when an image model answered without any inline image.
	ErrNoImage = errors.New("genai: no image in response")

	// ErrNoAudio is returned when the TTS model answered without audio.
	ErrNoAudio = errors.New("genai: no audio in response")

	// ErrVideoFailed is returned when a video operation finished without a video.
	ErrVideoFailed = errors.New("genai: video generation failed")
)

// APIError is a non-2xx answer of the Gemini API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("genai: API error %d", e.StatusCode)
	}
	return fmt.Sprintf("genai: API error %d (%s): %s", e.StatusCode, e.Status, e.Message)
}
