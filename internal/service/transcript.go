package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/minsu/vericlip/internal/domain"
)

// TranscriptService fetches timed captions from the caption backend.
// The pipeline makes exactly one fetch attempt per run; an empty result
// degrades the run to title-only analysis rather than failing it.
type TranscriptService struct {
	client   *resty.Client
	baseURL  string
	language string
}

// TranscriptConfig holds configuration for the transcript service.
type TranscriptConfig struct {
	BaseURL  string
	Timeout  time.Duration
	Language string
}

// NewTranscriptService creates a new transcript service.
// Parameters:
//   - cfg: transcript backend configuration.
// Returns:
//   - *TranscriptService: initialized client wrapper; nil BaseURL
//     disables server-side fetching.
func NewTranscriptService(cfg *TranscriptConfig) *TranscriptService {
	if cfg == nil || cfg.BaseURL == "" {
		return nil
	}

	client := resty.New()
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	client.SetTimeout(timeout)

	return &TranscriptService{
		client:   client,
		baseURL:  cfg.BaseURL,
		language: cfg.Language,
	}
}

// captionResponse is the caption backend's JSON shape.
type captionResponse struct {
	Events []struct {
		Text     string  `json:"text"`
		Start    float64 `json:"start"`
		Duration float64 `json:"duration"`
	} `json:"events"`
}

// Fetch retrieves the timed transcript for a video.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoID: external video ID.
// Returns:
//   - []domain.TranscriptItem: ordered caption items; nil when the
//     video has no captions.
//   - error: non-nil if the request fails.
func (s *TranscriptService) Fetch(ctx context.Context, videoID string) ([]domain.TranscriptItem, error) {
	var resp captionResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("video_id", videoID).
		SetQueryParam("lang", s.language).
		SetResult(&resp).
		ForceContentType("application/json").
		Get(s.baseURL + "/captions")

	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript: %w", err)
	}

	// No captions is a normal outcome, not an error.
	if httpResp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return nil, fmt.Errorf("transcript backend returned HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
	}

	items := make([]domain.TranscriptItem, 0, len(resp.Events))
	for _, ev := range resp.Events {
		if ev.Text == "" {
			continue
		}
		items = append(items, domain.TranscriptItem{
			Text:     ev.Text,
			Start:    ev.Start,
			Duration: ev.Duration,
		})
	}
	return items, nil
}
