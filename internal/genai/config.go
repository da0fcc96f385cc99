package genai

import "time"

// Config of the Gemini client. It is part of the server configuration (see package config) and
// never leaves the server: the API key is not sent to the browser.
type Config struct {
	APIKey  string `yaml:"api-key" env:"GEMINI_API_KEY"`
	BaseURL string `yaml:"base-url" env:"GEMINI_BASE_URL" env-default:"https://generativelanguage.googleapis.com"`

	TextModel  string `yaml:"text-model" env:"GEMINI_TEXT_MODEL" env-default:"gemini-2.5-flash"`
	TTSModel   string `yaml:"tts-model" env:"GEMINI_TTS_MODEL" env-default:"gemini-2.5-flash-preview-tts"`
	ImageModel string `yaml:"image-model" env:"GEMINI_IMAGE_MODEL" env-default:"gemini-2.5-flash-image"`
	VideoModel string `yaml:"video-model" env:"GEMINI_VIDEO_MODEL" env-default:"veo-3.1-fast-generate-preview"`

	// Voice is the prebuilt TTS voice reading the stories.
	Voice string `yaml:"voice" env:"GEMINI_VOICE" env-default:"Kore"`

	VideoPollInterval time.Duration `yaml:"video-poll-interval" env:"GEMINI_VIDEO_POLL_INTERVAL" env-default:"5s"`
	RequestTimeout    time.Duration `yaml:"request-timeout" env:"GEMINI_REQUEST_TIMEOUT" env-default:"2m"`
}

// DefaultConfig returns the configuration with every default filled in and no API key.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://generativelanguage.googleapis.com",
		TextModel:         "gemini-2.5-flash",
		TTSModel:          "gemini-2.5-flash-preview-tts",
		ImageModel:        "gemini-2.5-flash-image",
		VideoModel:        "veo-3.1-fast-generate-preview",
		Voice:             "Kore",
		VideoPollInterval: 5 * time.Second,
		RequestTimeout:    2 * time.Minute,
	}
}
