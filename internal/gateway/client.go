package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/accent-trainer/internal/metrics"
)

// Client is the HTTP implementation of Gateway.
type Client struct {
	generationURL string
	synthesisURL  string
	scoringURL    string
	apiKey        string
	modelID       string
	client        *http.Client
	log           zerolog.Logger
}

// Options configures the gateway client.
type Options struct {
	GenerationURL string
	SynthesisURL  string
	ScoringURL    string
	APIKey        string // sent as xi-api-key when set
	ModelID       string
	Timeout       time.Duration
}

// NewClient creates a gateway client with a shared per-call timeout.
func NewClient(opts Options, log zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		generationURL: opts.GenerationURL,
		synthesisURL:  opts.SynthesisURL,
		scoringURL:    opts.ScoringURL,
		apiKey:        opts.APIKey,
		modelID:       opts.ModelID,
		client:        &http.Client{Timeout: timeout},
		log:           log.With().Str("component", "gateway").Logger(),
	}
}

// generationResponse is the JSON response from the generation endpoint.
type generationResponse struct {
	Message string `json:"message"`
}

// FetchPrompt calls the generation endpoint and extracts the prompt text.
func (c *Client) FetchPrompt(ctx context.Context) (string, error) {
	start := time.Now()
	prompt, err := c.fetchPrompt(ctx)
	c.observe(StepGeneration, start, err)
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	return prompt, nil
}

func (c *Client) fetchPrompt(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.generationURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation returned status %d", resp.StatusCode)
	}

	var result generationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("parse generation response: %w", err)
	}
	if strings.TrimSpace(result.Message) == "" {
		return "", fmt.Errorf("generation response has no message field")
	}
	return result.Message, nil
}

// synthesisRequest is the JSON body for the synthesis endpoint.
type synthesisRequest struct {
	Text          string        `json:"text"`
	VoiceID       string        `json:"voiceId"`
	ModelID       string        `json:"modelId"`
	VoiceSettings voiceSettings `json:"voiceSettings"`
}

type voiceSettings struct {
	Speed float64 `json:"speed"`
}

// Synthesize calls the synthesis endpoint and returns the raw audio payload.
// PCM output is requested so the playback layer can derive duration from the
// byte length alone.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	start := time.Now()
	audio, err := c.synthesize(ctx, text, voiceID)
	c.observe(StepSynthesis, start, err)
	if err != nil {
		return nil, &SynthesisError{Err: err}
	}
	metrics.SynthesisBytes.Observe(float64(len(audio)))
	return audio, nil
}

func (c *Client) synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	payload := synthesisRequest{
		Text:          text,
		VoiceID:       voiceID,
		ModelID:       c.modelID,
		VoiceSettings: voiceSettings{Speed: 1.0},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal synthesis request: %w", err)
	}

	url := c.synthesisURL
	if !strings.Contains(url, "output_format=") {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + "output_format=pcm_22050"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("xi-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Error bodies are JSON; include a truncated copy for diagnosis.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("synthesis returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio payload: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesis returned empty audio payload")
	}
	return audio, nil
}

// scoringRequest is the JSON body for the scoring endpoint.
type scoringRequest struct {
	UserInput   string `json:"userInput"`
	GroundTruth string `json:"groundTruth"`
}

// scoringResponse is the JSON response from the scoring endpoint.
type scoringResponse struct {
	CombinedScore *float64 `json:"combined_score"`
}

// SubmitTranscript calls the scoring endpoint and extracts the combined score.
func (c *Client) SubmitTranscript(ctx context.Context, transcript, groundTruth string) (float64, error) {
	start := time.Now()
	score, err := c.submitTranscript(ctx, transcript, groundTruth)
	c.observe(StepScoring, start, err)
	if err != nil {
		return 0, &ScoringError{Err: err}
	}
	return score, nil
}

func (c *Client) submitTranscript(ctx context.Context, transcript, groundTruth string) (float64, error) {
	body, err := json.Marshal(scoringRequest{UserInput: transcript, GroundTruth: groundTruth})
	if err != nil {
		return 0, fmt.Errorf("marshal scoring request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.scoringURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("scoring request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("scoring returned status %d", resp.StatusCode)
	}

	var result scoringResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("parse scoring response: %w", err)
	}
	if result.CombinedScore == nil {
		return 0, fmt.Errorf("scoring response has no combined_score field")
	}
	return *result.CombinedScore, nil
}

func (c *Client) observe(op string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		c.log.Warn().Err(err).Str("operation", op).Msg("gateway call failed")
	}
	metrics.GatewayRequestsTotal.WithLabelValues(op, outcome).Inc()
	metrics.GatewayRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
