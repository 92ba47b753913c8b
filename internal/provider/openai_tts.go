package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

// synthesizerVoices is the fixed voice set of the primary synthesis
// backend. The local speech engine enumerates its own voices instead.
var synthesizerVoices = []types.Voice{
	{ID: "alloy", Name: "Alloy", Gender: "neutral"},
	{ID: "echo", Name: "Echo", Gender: "male"},
	{ID: "fable", Name: "Fable", Gender: "neutral"},
	{ID: "onyx", Name: "Onyx", Gender: "male"},
	{ID: "nova", Name: "Nova", Gender: "female"},
	{ID: "shimmer", Name: "Shimmer", Gender: "female"},
}

// SpeedBounds for synthesis requests
const (
	MinSpeed = 0.25
	MaxSpeed = 4.0
)

// ValidVoice reports whether the given voice is in the primary
// backend's enumerated set
func ValidVoice(voice string) bool {
	for _, v := range synthesizerVoices {
		if v.ID == voice {
			return true
		}
	}
	return false
}

// OpenAISynthesizer implements Synthesizer against OpenAI-compatible
// speech APIs
type OpenAISynthesizer struct {
	name       string
	config     types.TTSProviderConfig
	httpClient *http.Client
	log        *logrus.Entry
}

// NewOpenAISynthesizer creates a new OpenAI-compatible synthesizer
func NewOpenAISynthesizer(config types.TTSProviderConfig) (*OpenAISynthesizer, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required for OpenAI synthesizer")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required for OpenAI synthesizer")
	}

	// Speech synthesis can take longer than chat calls
	timeout := 300 * time.Second
	if timeoutStr, ok := config.Options["timeout"]; ok {
		var timeoutSec int
		if _, err := fmt.Sscanf(timeoutStr, "%d", &timeoutSec); err == nil && timeoutSec > 0 {
			timeout = time.Duration(timeoutSec) * time.Second
		}
	}

	return &OpenAISynthesizer{
		name:   config.Name,
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: logrus.WithField("tts", config.Name),
	}, nil
}

func (o *OpenAISynthesizer) Name() string {
	return o.name
}

// Voices returns the fixed enumerated voice set
func (o *OpenAISynthesizer) Voices() []types.Voice {
	voices := make([]types.Voice, len(synthesizerVoices))
	copy(voices, synthesizerVoices)
	return voices
}

// speechAPIRequest is the OpenAI speech API request body
type speechAPIRequest struct {
	Model string  `json:"model"`
	Input string  `json:"input"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed,omitempty"`
}

// speechAPIErrorResponse is an error response from the speech API
type speechAPIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Synthesize renders one sentence as MP3 audio
func (o *OpenAISynthesizer) Synthesize(ctx context.Context, req SynthesizeRequest) (*SynthesizeResponse, error) {
	if req.Text == "" {
		return nil, fmt.Errorf("%w: empty text", ErrInvalidRequest)
	}
	if !ValidVoice(req.Voice) {
		return nil, fmt.Errorf("%w: invalid voice %q", ErrInvalidRequest, req.Voice)
	}
	if req.Speed < MinSpeed || req.Speed > MaxSpeed {
		return nil, fmt.Errorf("%w: speed %g outside [%g, %g]", ErrInvalidRequest, req.Speed, MinSpeed, MaxSpeed)
	}

	apiReq := speechAPIRequest{
		Model: o.config.Model,
		Input: req.Text,
		Voice: req.Voice,
		Speed: req.Speed,
	}

	jsonData, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimSuffix(o.config.Endpoint, "/") + "/audio/speech"

	o.log.Debugf("Request: POST %s voice=%s speed=%g location=%s/p%d input_length=%d",
		endpoint, req.Voice, req.Speed, req.Location.TextID, req.Location.Page, len(req.Text))

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.config.APIKey)
	}

	startTime := time.Now()
	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		o.log.Warnf("Request failed after %v: %v", time.Since(startTime), err)
		return nil, fmt.Errorf("synthesis request failed: %w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp speechAPIErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("synthesis failed: %w: API error (status %d): %s",
				ErrProvider, resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("synthesis failed: %w: status %d", ErrProvider, resp.StatusCode)
	}

	o.log.Debugf("Response: audio_size=%d bytes (took %v)", len(body), time.Since(startTime))

	return &SynthesizeResponse{
		AudioData: body,
		Format:    "mp3",
	}, nil
}

func (o *OpenAISynthesizer) Close() error {
	o.httpClient.CloseIdleConnections()
	return nil
}
