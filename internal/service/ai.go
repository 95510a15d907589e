package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/minsu/vericlip/internal/domain"
	"github.com/minsu/vericlip/internal/logger"
	"github.com/minsu/vericlip/internal/prompts"
)

const chunkSummaryPlaceholder = "summary unavailable"

// AIService calls the external scoring service through an
// OpenAI-compatible chat completions endpoint. The holistic verdict
// call walks an ordered model fallback list, each model with a fresh
// retry budget; per-chunk summary calls use a single model and degrade
// to a placeholder on failure.
type AIService struct {
	client       *resty.Client
	endpoint     string
	models       []string
	summaryModel string
	maxRetries   int
	baseDelay    time.Duration
	shortTimeout time.Duration
	longTimeout  time.Duration
}

// AIServiceConfig holds configuration for the AI service.
type AIServiceConfig struct {
	APIKey           string
	BaseURL          string
	Models           []string
	SummaryModel     string
	MaxRetries       int
	RetryBaseDelay   time.Duration
	ShortFormTimeout time.Duration
	LongFormTimeout  time.Duration
}

// NewAIService creates a new AI service.
// Parameters:
//   - cfg: AI configuration including API key and model fallback list.
// Returns:
//   - *AIService: initialized client wrapper.
func NewAIService(cfg *AIServiceConfig) *AIService {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	models := cfg.Models
	if len(models) == 0 {
		models = []string{"gpt-4o"}
	}
	summaryModel := cfg.SummaryModel
	if summaryModel == "" {
		summaryModel = models[len(models)-1]
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 3
	}
	baseDelay := cfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	shortTimeout := cfg.ShortFormTimeout
	if shortTimeout <= 0 {
		shortTimeout = 45 * time.Second
	}
	longTimeout := cfg.LongFormTimeout
	if longTimeout <= 0 {
		longTimeout = 120 * time.Second
	}

	return &AIService{
		client:       client,
		endpoint:     baseURL + "/chat/completions",
		models:       models,
		summaryModel: summaryModel,
		maxRetries:   maxRetries,
		baseDelay:    baseDelay,
		shortTimeout: shortTimeout,
		longTimeout:  longTimeout,
	}
}

// OpenAI-compatible Chat Completion API request/response structures
type openAIRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string, or []interface{} for user with images
}

type openAITextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type openAIImageContent struct {
	Type     string         `json:"type"`
	ImageURL openAIImageURL `json:"image_url"`
}

type openAIImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// statusError is a non-2xx response from the scoring service. The code
// drives transient-vs-permanent classification.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("AI API returned HTTP %d: %s", e.Code, e.Body)
}

// errSafetyBlocked indicates the model refused the content. Permanent:
// resubmitting the same content yields the same refusal.
var errSafetyBlocked = errors.New("AI response blocked by content filter")

// isTransientAIError classifies call failures. Timeouts, transport
// resets, rate limits and overload statuses are worth retrying;
// everything else aborts the call.
func isTransientAIError(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		switch se.Code {
		case 408, 429, 500, 502, 503, 529:
			return true
		}
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	// A per-attempt deadline is a timeout, not a caller cancellation.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var oe *net.OpError
	return errors.As(err, &oe)
}

// ChunkSummary pairs a chunk's start timestamp with its AI summary.
type ChunkSummary struct {
	Timestamp string
	Text      string
}

// SummarizeChunks summarizes every chunk with one AI call each, run in
// parallel: the calls are independent and the chunk cap already bounds
// their number. A failed chunk degrades to a placeholder instead of
// failing the pipeline; chunk summaries are supplementary narrative,
// not the scored verdict.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - chunks: transcript chunks to summarize.
// Returns:
//   - []ChunkSummary: one entry per chunk, in order.
func (s *AIService) SummarizeChunks(ctx context.Context, chunks []domain.TranscriptChunk) []ChunkSummary {
	summaries := make([]ChunkSummary, len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk domain.TranscriptChunk) {
			defer wg.Done()

			summaries[i] = ChunkSummary{Timestamp: chunk.Timestamp, Text: chunkSummaryPlaceholder}

			policy := RetryPolicy{
				MaxAttempts: s.maxRetries,
				BaseDelay:   s.baseDelay,
				Classify:    isTransientAIError,
			}
			err := policy.Do(ctx, func(attempt int) error {
				actx, cancel := context.WithTimeout(ctx, s.shortTimeout)
				defer cancel()

				content, err := s.chat(actx, s.summaryModel, []openAIMessage{
					{Role: "system", Content: prompts.ChunkSummarySystemPrompt},
					{Role: "user", Content: fmt.Sprintf(prompts.ChunkSummaryUserPrompt, chunk.Timestamp, chunk.Text)},
				}, 200)
				if err != nil {
					return err
				}
				summaries[i].Text = strings.TrimSpace(content)
				return nil
			})
			if err != nil {
				logger.CtxWarn(ctx, "Chunk summary failed, using placeholder: timestamp=%s, err=%v", chunk.Timestamp, err)
			}
		}(i, chunk)
	}
	wg.Wait()

	return summaries
}

// VerdictInput is everything the holistic scoring call needs.
type VerdictInput struct {
	Video          *domain.VideoRef
	Transcript     string
	ChunkSummaries []ChunkSummary
	TitleOnly      bool
	ShortForm      bool
}

// Verdict is the validated output of the holistic scoring call.
type Verdict struct {
	Accuracy         int    `json:"accuracy"`
	Clickbait        int    `json:"clickbait"`
	Summary          string `json:"summary"`
	Rationale        string `json:"rationale"`
	Overall          string `json:"overall"`
	RecommendedTitle string `json:"recommended_title"`
	NotEvaluable     bool   `json:"not_evaluable"`
	NotEvalReason    string `json:"not_evaluable_reason"`
}

// ScoreVideo runs the holistic scoring call with retry and model
// fallback. Each model in the fallback list gets its own retry budget;
// permanent errors skip straight to the next model.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - in: verdict input assembled by the pipeline.
// Returns:
//   - *Verdict: validated verdict.
//   - error: non-nil once every model's budget is spent.
func (s *AIService) ScoreVideo(ctx context.Context, in *VerdictInput) (*Verdict, error) {
	timeout := s.longTimeout
	if in.ShortForm || in.TitleOnly {
		timeout = s.shortTimeout
	}

	messages := s.buildVerdictMessages(in)

	var lastErr error
	for _, model := range s.models {
		policy := RetryPolicy{
			MaxAttempts: s.maxRetries,
			BaseDelay:   s.baseDelay,
			Classify:    isTransientAIError,
		}

		var verdict *Verdict
		err := policy.Do(ctx, func(attempt int) error {
			actx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			content, err := s.chat(actx, model, messages, 1200)
			if err != nil {
				logger.FromContext(ctx).WithFields(logger.Fields{
					logger.FieldModel:   model,
					logger.FieldAttempt: attempt,
				}).WithError(err).Warn("Verdict call failed")
				return err
			}

			v, err := parseVerdict(content)
			if err != nil {
				return err
			}
			verdict = v
			return nil
		})
		if err == nil {
			return verdict, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.FromContext(ctx).WithField(logger.FieldModel, model).WithError(err).
			Warn("Model exhausted, falling back to next model")
	}

	return nil, fmt.Errorf("all models failed: %w", lastErr)
}

// buildVerdictMessages assembles the system and user messages for the
// holistic call, attaching the thumbnail as a vision input when present.
func (s *AIService) buildVerdictMessages(in *VerdictInput) []openAIMessage {
	var content strings.Builder
	if in.TitleOnly {
		content.WriteString(prompts.VerdictTitleOnlyNote)
	} else {
		if len(in.ChunkSummaries) > 0 {
			content.WriteString("Segment summaries:\n")
			for _, cs := range in.ChunkSummaries {
				fmt.Fprintf(&content, "[%s] %s\n", cs.Timestamp, cs.Text)
			}
			content.WriteString("\n")
		}
		content.WriteString("Transcript:\n")
		content.WriteString(in.Transcript)
	}

	userText := fmt.Sprintf(prompts.VerdictUserPrompt,
		in.Video.Title,
		in.Video.ChannelTitle,
		in.Video.CategoryID,
		in.Video.DurationSeconds,
		content.String(),
	)

	var userContent interface{} = userText
	if in.Video.ThumbnailURL != "" {
		userContent = []interface{}{
			openAITextContent{Type: "text", Text: userText},
			openAIImageContent{
				Type: "image_url",
				ImageURL: openAIImageURL{
					URL:    in.Video.ThumbnailURL,
					Detail: "auto",
				},
			},
		}
	}

	return []openAIMessage{
		{Role: "system", Content: prompts.VerdictSystemPrompt},
		{Role: "user", Content: userContent},
	}
}

// chat performs one chat completion request and returns the response text.
func (s *AIService) chat(ctx context.Context, model string, messages []openAIMessage, maxTokens int) (string, error) {
	req := openAIRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}

	var resp openAIResponse
	// Some gateways mislabel JSON bodies; force decoding regardless.
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		ForceContentType("application/json").
		Post(s.endpoint)

	if err != nil {
		return "", fmt.Errorf("failed to call AI API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		body := string(httpResp.Body())
		if resp.Error != nil {
			body = resp.Error.Message
		}
		return "", &statusError{Code: httpResp.StatusCode(), Body: body}
	}

	if resp.Error != nil {
		return "", fmt.Errorf("AI API error: %s", resp.Error.Message)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrMalformedAIResponse)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", errSafetyBlocked
	}
	if choice.Message.Content == "" {
		return "", fmt.Errorf("%w: empty message content", ErrMalformedAIResponse)
	}

	return choice.Message.Content, nil
}

// verdictPayload mirrors Verdict with pointer numerics so missing
// required fields are distinguishable from zeros.
type verdictPayload struct {
	Accuracy         *float64 `json:"accuracy"`
	Clickbait        *float64 `json:"clickbait"`
	Summary          string   `json:"summary"`
	Rationale        string   `json:"rationale"`
	Overall          string   `json:"overall"`
	RecommendedTitle string   `json:"recommended_title"`
	NotEvaluable     bool     `json:"not_evaluable"`
	NotEvalReason    string   `json:"not_evaluable_reason"`
}

// parseVerdict extracts and validates the JSON verdict from the model
// response. Any shape violation is the permanent malformed-response
// error; a structurally broken reply will not fix itself on retry.
func parseVerdict(content string) (*Verdict, error) {
	jsonStr, err := extractJSON(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAIResponse, err)
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAIResponse, err)
	}

	if payload.NotEvaluable {
		return &Verdict{
			NotEvaluable:  true,
			NotEvalReason: strings.TrimSpace(payload.NotEvalReason),
		}, nil
	}

	if payload.Accuracy == nil || payload.Clickbait == nil {
		return nil, fmt.Errorf("%w: missing required score fields", ErrMalformedAIResponse)
	}
	accuracy := int(*payload.Accuracy)
	clickbait := int(*payload.Clickbait)
	if accuracy < 0 || accuracy > 100 || clickbait < 0 || clickbait > 100 {
		return nil, fmt.Errorf("%w: score out of range (accuracy=%d, clickbait=%d)", ErrMalformedAIResponse, accuracy, clickbait)
	}
	if strings.TrimSpace(payload.Summary) == "" {
		return nil, fmt.Errorf("%w: missing summary", ErrMalformedAIResponse)
	}

	return &Verdict{
		Accuracy:         accuracy,
		Clickbait:        clickbait,
		Summary:          strings.TrimSpace(payload.Summary),
		Rationale:        strings.TrimSpace(payload.Rationale),
		Overall:          strings.TrimSpace(payload.Overall),
		RecommendedTitle: strings.TrimSpace(payload.RecommendedTitle),
	}, nil
}

// extractJSON locates the first balanced JSON object in the response
// text, tolerating surrounding prose or markdown fences.
func extractJSON(content string) (string, error) {
	start := strings.Index(content, "{")
	if start == -1 {
		return "", errors.New("no JSON found in response")
	}

	braceCount := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			braceCount++
		case '}':
			braceCount--
			if braceCount == 0 {
				return content[start : i+1], nil
			}
		}
	}
	return "", errors.New("incomplete JSON in response")
}
