package background

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ImageGenTimeout bounds every image-generation request; this path must never
// stall the pipeline.
const ImageGenTimeout = 8 * time.Second

// ImageClient fetches AI-generated backgrounds from an external
// image-generation service over HTTP.
type ImageClient struct {
	BaseURL string
	Client  *http.Client
}

func NewImageClient(baseURL string) *ImageClient {
	return &ImageClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: ImageGenTimeout},
	}
}

// Generate issues one GET with the prompt, a deterministic seed and the
// target dimensions. Any deviation from a 2xx image/* response with a
// non-empty body is an error; the caller falls through to the gradient.
func (c *ImageClient) Generate(ctx context.Context, prompt string, seed int64, width, height int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, ImageGenTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("prompt", prompt)
	q.Set("seed", strconv.FormatInt(seed, 10))
	q.Set("width", strconv.Itoa(width))
	q.Set("height", strconv.Itoa(height))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("image service returned status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("image service returned content type %q", ct)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("image service returned empty body")
	}
	return body, nil
}
