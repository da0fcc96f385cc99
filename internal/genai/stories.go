package genai

import (
	"context"
	"fmt"
	"strings"

	"github.com/janpfeifer/GoTales/internal/game"
	"k8s.io/klog/v2"
)

// FallbackStoryText is told when the text model returns nothing.
const FallbackStoryText = "Bir varmış bir yokmuş..."

// Story is a generated tale: its text, the text read aloud, and an illustration.
// AudioURL and ImageURL are data URLs, empty if their generation failed.
type Story struct {
	Text     string `json:"text"`
	AudioURL string `json:"audio_url,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// StoryPrompt asks for a three sentence tale for a 5-6 year old starring the character.
func StoryPrompt(ch game.Character) string {
	return fmt.Sprintf("5-6 yaşındaki bir çocuk için, ana karakteri %s (%s) olan, 3 cümleden oluşan, "+
		"çok basit, öğretici ve eğlenceli kısa bir masal yaz. Türkçe olsun. "+
		"Sadece masalı yaz, başlık veya ekstra metin olmasın.", ch.Name, ch.PromptDesc)
}

// IllustrationPrompt describes the story's picture.
func IllustrationPrompt(ch game.Character) string {
	return fmt.Sprintf("Çocuk kitabı illüstrasyonu, renkli, sevimli, vektör sanatı, düz arka plan: "+
		"%s ormanda macera yaşıyor.", ch.PromptDesc)
}

// ColoringPagePrompt asks for thick black line art on white, with nothing filled in.
func ColoringPagePrompt(ch game.Character) string {
	return strings.Join([]string{
		"High quality coloring page for kids.",
		fmt.Sprintf("Subject: A simple, cute %s.", ch.PromptDesc),
		"Style: Clear thick black outlines, PURE WHITE background.",
		"Important: The character inside must be white/empty for coloring. No shading.",
		"Single object centered.",
	}, "\n")
}

// VideoPrompt asks for a short animated clip of the character waving.
func VideoPrompt(ch game.Character) string {
	return fmt.Sprintf("A short, cute, 3D animated video for kids featuring %s. The character is happy "+
		"and waving. High quality, colorful, plain background or simple nature background.", ch.PromptDesc)
}

// Story writes a tale about ch, reads it aloud and illustrates it.
//
// Only the text is required: if the narration or the illustration fail, the story is returned
// without them.
func (c *Client) Story(ctx context.Context, ch game.Character) (*Story, error) {
	text, err := c.GenerateText(ctx, StoryPrompt(ch))
	if err != nil {
		return nil, err
	}
	story := &Story{Text: text}
	if story.Text == "" {
		story.Text = FallbackStoryText
	}

	story.AudioURL, err = c.Speak(ctx, story.Text)
	if err != nil {
		klog.Warningf("Story for %s: narration failed, continuing without audio: %v", ch.ID, err)
	}
	story.ImageURL, err = c.GenerateImage(ctx, IllustrationPrompt(ch))
	if err != nil {
		klog.Warningf("Story for %s: illustration failed, continuing without image: %v", ch.ID, err)
	}
	klog.V(1).Infof("Story for %s: %d chars, audio=%t, image=%t",
		ch.ID, len(story.Text), story.AudioURL != "", story.ImageURL != "")
	return story, nil
}

// ColoringPage generates a line-art page of ch, returned as a data URL.
func (c *Client) ColoringPage(ctx context.Context, ch game.Character) (string, error) {
	return c.GenerateImage(ctx, ColoringPagePrompt(ch))
}

// Video generates a short clip of ch and returns its download URI, to be fetched with FetchVideo.
// It blocks while the video renders, which takes minutes; progress (optional) is called on every
// poll that finds it still rendering.
func (c *Client) Video(ctx context.Context, ch game.Character, progress func(polls int)) (string, error) {
	name, err := c.StartVideo(ctx, VideoPrompt(ch))
	if err != nil {
		return "", err
	}
	klog.Infof("Video for %s: started operation %s", ch.ID, name)
	return c.WaitVideo(ctx, name, progress)
}
