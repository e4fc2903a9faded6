package narration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.elevenlabs.io/v1"

// defaultModelID is the multilingual model; a run-level override is not
// exposed because the rest of the pipeline never varies it.
const defaultModelID = "eleven_multilingual_v2"

type ttsRequest struct {
	Text          string                 `json:"text"`
	ModelID       string                 `json:"model_id"`
	VoiceSettings map[string]interface{} `json:"voice_settings"`
}

// Client speaks the text-to-speech HTTP API. Narration is best-effort end to
// end: any failure here means the render simply proceeds without a voice
// track.
type Client struct {
	BaseURL string
	APIKey  string
	VoiceID string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey, voiceID string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		VoiceID: voiceID,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether the client is configured enough to attempt a call.
func (c *Client) Enabled() bool {
	return c != nil && c.APIKey != "" && c.VoiceID != ""
}

// Synthesize converts text to speech and returns the audio bytes. The
// response must be an audio payload; an HTML error page or empty body is
// rejected.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: defaultModelID,
		VoiceSettings: map[string]interface{}{
			"stability":        0.5,
			"similarity_boost": 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tts request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", c.BaseURL, c.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create tts request: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts API error (%d): %s", resp.StatusCode, string(msg))
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "audio/") {
		return nil, fmt.Errorf("tts returned non-audio content type %q", ct)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tts response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts returned empty audio")
	}
	return audio, nil
}

// SynthesizeToFile writes the spoken text to path.
func (c *Client) SynthesizeToFile(ctx context.Context, text, path string) error {
	audio, err := c.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	return os.WriteFile(path, audio, 0644)
}
