package modal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"showrunner/contexts/production/series-production/domain/entities"
)

const (
	defaultNegativePrompt = "low quality, distorted, warping, shaky, text, watermark"
	videoWidth            = 1280
	videoHeight           = 720
)

// Client calls the Modal GPU endpoints for video generation and prompt
// refinement. Generation runs long; the HTTP client timeout is the only
// bound on a call.
type Client struct {
	generateEndpoint string
	refineEndpoint   string
	httpClient       *http.Client
	negativePrompt   string
	logger           *slog.Logger
}

func NewClient(generateEndpoint string, refineEndpoint string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Minute
	}
	return &Client{
		generateEndpoint: strings.TrimRight(generateEndpoint, "/"),
		refineEndpoint:   strings.TrimRight(refineEndpoint, "/"),
		httpClient:       &http.Client{Timeout: timeout},
		negativePrompt:   defaultNegativePrompt,
		logger:           logger,
	}
}

type generateRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Seed           int64  `json:"seed"`
}

type generateResponse struct {
	VideoBase64 string  `json:"video_base64"`
	Duration    float64 `json:"duration_seconds"`
	Seed        int64   `json:"seed"`
	Model       string  `json:"model"`
	Error       string  `json:"error"`
}

func (c *Client) Generate(ctx context.Context, prompt string, seed int64) (entities.GeneratedClip, error) {
	body, err := json.Marshal(generateRequest{
		Prompt:         prompt,
		NegativePrompt: c.negativePrompt,
		Width:          videoWidth,
		Height:         videoHeight,
		Seed:           seed,
	})
	if err != nil {
		return entities.GeneratedClip{}, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.generateEndpoint, bytes.NewReader(body))
	if err != nil {
		return entities.GeneratedClip{}, err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return entities.GeneratedClip{}, fmt.Errorf("modal generate request: %w", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		return entities.GeneratedClip{}, fmt.Errorf("modal generate status %d: %s", response.StatusCode, string(payload))
	}

	var decoded generateResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return entities.GeneratedClip{}, fmt.Errorf("modal generate decode: %w", err)
	}
	if decoded.Error != "" {
		return entities.GeneratedClip{}, fmt.Errorf("modal generate: %s", decoded.Error)
	}
	video, err := base64.StdEncoding.DecodeString(decoded.VideoBase64)
	if err != nil {
		return entities.GeneratedClip{}, fmt.Errorf("modal generate video decode: %w", err)
	}

	if c.logger != nil {
		c.logger.Info("video generated",
			"event", "modal_video_generated",
			"module", "production/series-production",
			"layer", "adapter",
			"model", decoded.Model,
			"seed", decoded.Seed,
			"duration_seconds", decoded.Duration,
			"bytes", len(video),
		)
	}
	return entities.GeneratedClip{
		Video: video,
		Seed:  decoded.Seed,
		Model: decoded.Model,
	}, nil
}

type refineRequest struct {
	Prompt string `json:"prompt"`
}

type refineResponse struct {
	RefinedPrompt string `json:"refined_prompt"`
	Error         string `json:"error"`
}

// Refine asks the prompt refinement endpoint for an expanded prompt. Callers
// fall back to the raw prompt on any error.
func (c *Client) Refine(ctx context.Context, prompt string) (string, error) {
	if c.refineEndpoint == "" {
		return prompt, nil
	}
	body, err := json.Marshal(refineRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.refineEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("modal refine request: %w", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("modal refine status %d", response.StatusCode)
	}

	var decoded refineResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("modal refine decode: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("modal refine: %s", decoded.Error)
	}
	return decoded.RefinedPrompt, nil
}
