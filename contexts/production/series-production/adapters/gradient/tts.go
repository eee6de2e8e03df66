package gradient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultModelID      = "fal-ai/elevenlabs/tts/multilingual-v2"
	defaultPollInterval = 2 * time.Second
	defaultMaxWait      = 2 * time.Minute
)

// TTS synthesizes narration through the Gradient async-invoke API: start a
// job, poll its status, then download the produced audio.
type TTS struct {
	endpoint     string
	apiKey       string
	modelID      string
	pollInterval time.Duration
	maxWait      time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

func NewTTS(endpoint string, apiKey string, logger *slog.Logger) *TTS {
	return &TTS{
		endpoint:     strings.TrimRight(endpoint, "/"),
		apiKey:       apiKey,
		modelID:      defaultModelID,
		pollInterval: defaultPollInterval,
		maxWait:      defaultMaxWait,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}
}

type invokeRequest struct {
	ModelID string         `json:"model_id"`
	Input   map[string]any `json:"input"`
}

type invokeResponse struct {
	RequestID string `json:"request_id"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type resultResponse struct {
	AudioURL string `json:"audio_url"`
	Output   struct {
		AudioURL string `json:"audio_url"`
	} `json:"output"`
}

func (t *TTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	requestID, err := t.startJob(ctx, text)
	if err != nil {
		return nil, err
	}
	audioURL, err := t.awaitResult(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return t.downloadAudio(ctx, audioURL)
}

func (t *TTS) startJob(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(invokeRequest{
		ModelID: t.modelID,
		Input:   map[string]any{"text": text},
	})
	if err != nil {
		return "", err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"/v1/async-invoke", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	t.setHeaders(request)

	response, err := t.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("gradient tts invoke: %w", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gradient tts invoke status %d", response.StatusCode)
	}
	var decoded invokeResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("gradient tts invoke decode: %w", err)
	}
	if decoded.RequestID == "" {
		return "", fmt.Errorf("gradient tts invoke returned no request id")
	}
	return decoded.RequestID, nil
}

func (t *TTS) awaitResult(ctx context.Context, requestID string) (string, error) {
	deadline := time.Now().Add(t.maxWait)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(t.pollInterval):
		}

		status, err := t.jobStatus(ctx, requestID)
		if err != nil {
			if t.logger != nil {
				t.logger.Warn("gradient tts status check failed",
					"event", "gradient_tts_status_failed",
					"module", "production/series-production",
					"layer", "adapter",
					"request_id", requestID,
					"error", err.Error(),
				)
			}
			continue
		}
		switch status {
		case "COMPLETE":
			return t.jobResult(ctx, requestID)
		case "FAILED", "CANCELLED":
			return "", fmt.Errorf("gradient tts job %s ended %s", requestID, status)
		}
	}
	return "", fmt.Errorf("gradient tts job %s timed out", requestID)
}

func (t *TTS) jobStatus(ctx context.Context, requestID string) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/async-invoke/%s/status", t.endpoint, requestID), nil)
	if err != nil {
		return "", err
	}
	t.setHeaders(request)
	response, err := t.httpClient.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", response.StatusCode)
	}
	var decoded statusResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return "", err
	}
	return decoded.Status, nil
}

func (t *TTS) jobResult(ctx context.Context, requestID string) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/async-invoke/%s", t.endpoint, requestID), nil)
	if err != nil {
		return "", err
	}
	t.setHeaders(request)
	response, err := t.httpClient.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gradient tts result status %d", response.StatusCode)
	}
	var decoded resultResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return "", err
	}
	audioURL := decoded.AudioURL
	if audioURL == "" {
		audioURL = decoded.Output.AudioURL
	}
	if audioURL == "" {
		return "", fmt.Errorf("gradient tts result has no audio url")
	}
	return audioURL, nil
}

func (t *TTS) downloadAudio(ctx context.Context, audioURL string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, err
	}
	response, err := t.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("gradient tts audio download: %w", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gradient tts audio download status %d", response.StatusCode)
	}
	return io.ReadAll(response.Body)
}

func (t *TTS) setHeaders(request *http.Request) {
	request.Header.Set("Authorization", "Bearer "+t.apiKey)
	request.Header.Set("Content-Type", "application/json")
}
