package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minsu/vericlip/internal/domain"
	"github.com/minsu/vericlip/internal/lock"
	"github.com/minsu/vericlip/internal/logger"
	"github.com/minsu/vericlip/internal/repository"
	"gorm.io/gorm"
)

// AnalysisStore is the persistence surface the pipeline writes through.
// *repository.AnalysisRepository satisfies it.
type AnalysisStore interface {
	GetLatestByVideoID(ctx context.Context, videoID string) (*domain.Analysis, error)
	BumpRequestCount(ctx context.Context, id string) error
	SaveResult(ctx context.Context, params *repository.SaveResultParams) error
}

// VideoStore reads the stored metadata snapshot for recheck comparison.
// *repository.VideoRepository satisfies it.
type VideoStore interface {
	GetByID(ctx context.Context, id string) (*domain.Video, error)
}

// CreditStore reads recheck credit balances for the pre-check.
// *repository.CreditRepository satisfies it.
type CreditStore interface {
	GetBalance(ctx context.Context, userID string) (int, error)
}

// TranscriptFetcher performs the server-side caption fetch.
// *TranscriptService satisfies it.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) ([]domain.TranscriptItem, error)
}

// VerdictClient is the AI surface the pipeline calls.
// *AIService satisfies it.
type VerdictClient interface {
	SummarizeChunks(ctx context.Context, chunks []domain.TranscriptChunk) []ChunkSummary
	ScoreVideo(ctx context.Context, in *VerdictInput) (*Verdict, error)
}

// RankNotifier signals the external ranking cache, fire-and-forget.
// *rankcache.RedisNotifier satisfies it.
type RankNotifier interface {
	NotifyCategory(categoryID string)
}

// AnalyzeRequest is one inbound evaluation request.
type AnalyzeRequest struct {
	Video          domain.VideoRef
	UserID         string // empty = anonymous
	Recheck        bool
	ForceRefresh   bool
	Transcript     []domain.TranscriptItem // caller-supplied, optional
	TranscriptText string                  // caller-supplied untimed text, optional
}

// AnalyzeResult is the successful outcome of one pipeline run.
type AnalyzeResult struct {
	AnalysisID string
	Message    string
	CreditUsed bool
	CacheHit   bool
}

// AnalyzeConfig holds pipeline tuning threaded explicitly into each
// invocation; the service keeps no mutable runtime options.
type AnalyzeConfig struct {
	MinTranscriptChars int
	LockWaitTimeout    time.Duration
	RequestTimeout     time.Duration
}

// AnalyzeService orchestrates the evaluation pipeline: eligibility gate,
// per-video lock, cache resolution, transcript acquisition,
// segmentation, AI scoring, persistence and ranking-cache notification.
type AnalyzeService struct {
	gate     *EligibilityGate
	locks    lock.Manager
	store    AnalysisStore
	videos   VideoStore
	credits  CreditStore
	fetcher  TranscriptFetcher
	ai       VerdictClient
	notifier RankNotifier
	cfg      AnalyzeConfig
}

// NewAnalyzeService creates the pipeline orchestrator.
// Parameters:
//   - locks: per-video lock manager.
//   - store: analysis persistence.
//   - videos: video metadata reads.
//   - credits: credit balance reads.
//   - fetcher: server-side transcript fetch; nil disables fetching.
//   - ai: AI invoker.
//   - notifier: ranking cache notifier; nil disables notification.
//   - cfg: pipeline tuning.
// Returns:
//   - *AnalyzeService: initialized orchestrator.
func NewAnalyzeService(
	locks lock.Manager,
	store AnalysisStore,
	videos VideoStore,
	credits CreditStore,
	fetcher TranscriptFetcher,
	ai VerdictClient,
	notifier RankNotifier,
	cfg AnalyzeConfig,
) *AnalyzeService {
	if cfg.MinTranscriptChars <= 0 {
		cfg.MinTranscriptChars = 100
	}
	if cfg.LockWaitTimeout <= 0 {
		cfg.LockWaitTimeout = 4 * time.Minute
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Minute
	}
	return &AnalyzeService{
		gate:     NewEligibilityGate(),
		locks:    locks,
		store:    store,
		videos:   videos,
		credits:  credits,
		fetcher:  fetcher,
		ai:       ai,
		notifier: notifier,
		cfg:      cfg,
	}
}

// Analyze runs the full pipeline for one request. The per-video lock is
// released on every path; callers that race on the same video serialize
// here and the later one takes the cache-hit path.
// Parameters:
//   - ctx: request context carrying the overall deadline.
//   - req: evaluation request.
// Returns:
//   - *AnalyzeResult: outcome with the analysis ID to display.
//   - error: one of the taxonomy errors in errors.go, or an internal error.
func (s *AnalyzeService) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResult, error) {
	if req == nil || req.Video.ID == "" || req.Video.Title == "" {
		return nil, ErrInvalidVideoRef
	}
	if req.Recheck && req.UserID == "" {
		return nil, ErrIdentityRequired
	}

	ctx = logger.SetVideoID(ctx, req.Video.ID)

	// The overall deadline bounds the whole pipeline run, lock wait and
	// AI calls included.
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	// The gate runs before the lock so the fast-reject path touches
	// nothing external.
	if rej := s.gate.Check(req.Video.Title, req.Video.CategoryID); rej != nil {
		return nil, rej
	}

	handle := s.acquireLock(ctx, req.Video.ID)
	defer handle.Release()

	result, proceed, parent, err := s.resolveCache(ctx, req)
	if err != nil {
		return nil, err
	}
	if !proceed {
		return result, nil
	}

	items, rawText, titleOnly, err := s.acquireTranscript(ctx, req)
	if err != nil {
		return nil, err
	}

	verdict, err := s.invokeAI(ctx, req, items, rawText, titleOnly)
	if err != nil {
		return nil, err
	}

	return s.persist(ctx, req, parent, verdict)
}

// acquireLock acquires the per-video lock, degrading to non-exclusive
// execution when the lock backend fails. The returned handle's Release
// is always safe to call.
func (s *AnalyzeService) acquireLock(ctx context.Context, videoID string) lock.Handle {
	lctx, cancel := context.WithTimeout(ctx, s.cfg.LockWaitTimeout)
	defer cancel()

	handle, err := s.locks.Acquire(lctx, videoID)
	if err != nil {
		logger.CtxWarn(ctx, "Lock acquisition failed, proceeding without exclusivity: %v", err)
		return lock.Noop()
	}
	return handle
}

// resolveCache decides, under the lock, whether a cached outcome
// answers the request. proceed=false means result (or an error) is the
// final answer; proceed=true continues to fresh evaluation with parent
// set for rechecks.
func (s *AnalyzeService) resolveCache(ctx context.Context, req *AnalyzeRequest) (result *AnalyzeResult, proceed bool, parent *domain.Analysis, err error) {
	latest, err := s.store.GetLatestByVideoID(ctx, req.Video.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil, err
		}
		latest = nil
	}

	force := req.ForceRefresh || req.Recheck

	if latest != nil && !force {
		if latest.NotEvaluable {
			if err := s.store.BumpRequestCount(ctx, latest.ID); err != nil {
				logger.CtxWarn(ctx, "Failed to bump request count: %v", err)
			}
			return nil, false, nil, &NotEvaluableError{Reason: latest.NotEvalReason, Cached: true}
		}
		// Only a positive score is a servable cached verdict; a zero
		// reliability record falls through to fresh evaluation.
		if latest.Reliability > 0 {
			if err := s.store.BumpRequestCount(ctx, latest.ID); err != nil {
				logger.CtxWarn(ctx, "Failed to bump request count: %v", err)
			}
			return &AnalyzeResult{
				AnalysisID: latest.ID,
				Message:    "analysis already available",
				CacheHit:   true,
			}, false, nil, nil
		}
	}

	if req.Recheck {
		if latest == nil {
			return nil, false, nil, ErrRecheckNoParent
		}
		parent = latest

		// Compare the live reference against the stored snapshot; a
		// recheck with nothing changed never reaches paid work.
		stored, err := s.videos.GetByID(ctx, req.Video.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil, err
		}
		if stored != nil && stored.Title == req.Video.Title && stored.ThumbnailURL == req.Video.ThumbnailURL {
			return nil, false, nil, ErrNoContentChange
		}

		balance, err := s.credits.GetBalance(ctx, req.UserID)
		if err != nil {
			return nil, false, nil, err
		}
		if balance < 1 {
			return nil, false, nil, repository.ErrInsufficientCredit
		}
	}

	return nil, true, parent, nil
}

// acquireTranscript prefers caller-supplied material over a
// server-side fetch, of which exactly one attempt is made. Timed items
// win over raw text when both are supplied. Fresh evaluations degrade
// to title-only mode without a transcript; rechecks hard-fail.
func (s *AnalyzeService) acquireTranscript(ctx context.Context, req *AnalyzeRequest) (items []domain.TranscriptItem, rawText string, titleOnly bool, err error) {
	items = req.Transcript
	if transcriptChars(items) < s.cfg.MinTranscriptChars {
		items = nil
	}

	rawText = strings.TrimSpace(req.TranscriptText)
	if len(rawText) < s.cfg.MinTranscriptChars {
		rawText = ""
	}

	if items == nil && rawText == "" && s.fetcher != nil {
		fetched, ferr := s.fetcher.Fetch(ctx, req.Video.ID)
		if ferr != nil {
			logger.CtxWarn(ctx, "Transcript fetch failed: %v", ferr)
		} else {
			items = fetched
		}
	}

	if len(items) == 0 && rawText == "" {
		if req.Recheck {
			return nil, "", false, ErrTranscriptRequired
		}
		logger.CtxInfo(ctx, "No transcript available, degrading to title-only analysis")
		return nil, "", true, nil
	}
	return items, rawText, false, nil
}

// invokeAI runs segmentation, the parallel per-chunk summaries, and the
// holistic verdict call. Timed items go through gap segmentation;
// untimed raw text through fixed-window segmentation.
func (s *AnalyzeService) invokeAI(ctx context.Context, req *AnalyzeRequest, items []domain.TranscriptItem, rawText string, titleOnly bool) (*Verdict, error) {
	var (
		transcript string
		shortForm  bool
		chunks     []domain.TranscriptChunk
	)
	switch {
	case titleOnly:
	case len(items) > 0:
		transcript = JoinTranscript(items)
		shortForm = IsShortForm(items, req.Video.DurationSeconds)
		if !shortForm {
			chunks = SplitTranscript(items)
		}
	default:
		transcript = rawText
		shortForm = IsShortFormText(rawText, req.Video.DurationSeconds)
		if !shortForm {
			chunks = SplitPlainText(rawText)
		}
	}

	var summaries []ChunkSummary
	if len(chunks) > 0 {
		summaries = s.ai.SummarizeChunks(ctx, chunks)
	}

	verdict, err := s.ai.ScoreVideo(ctx, &VerdictInput{
		Video:          &req.Video,
		Transcript:     transcript,
		ChunkSummaries: summaries,
		TitleOnly:      titleOnly,
		ShortForm:      shortForm,
	})
	if err != nil {
		return nil, err
	}
	return verdict, nil
}

// persist writes the outcome transactionally and signals the ranking
// cache. Recheck suppression and the credit charge both live here.
func (s *AnalyzeService) persist(ctx context.Context, req *AnalyzeRequest, parent *domain.Analysis, verdict *Verdict) (*AnalyzeResult, error) {
	now := time.Now()
	video := &domain.Video{
		ID:              req.Video.ID,
		ChannelID:       req.Video.ChannelID,
		Title:           req.Video.Title,
		CategoryID:      req.Video.CategoryID,
		DurationSeconds: req.Video.DurationSeconds,
		PublishedAt:     req.Video.PublishedAt,
		ThumbnailURL:    req.Video.ThumbnailURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	var channel *domain.Channel
	if req.Video.ChannelID != "" {
		channel = &domain.Channel{
			ID:        req.Video.ChannelID,
			Title:     req.Video.ChannelTitle,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	var userID *string
	if req.UserID != "" {
		uid := req.UserID
		userID = &uid
	}

	if verdict.NotEvaluable {
		analysis := &domain.Analysis{
			ID:            uuid.New().String(),
			VideoID:       req.Video.ID,
			ChannelID:     req.Video.ChannelID,
			UserID:        userID,
			NotEvaluable:  true,
			NotEvalReason: verdict.NotEvalReason,
			IsRecheck:     req.Recheck,
			RequestCount:  1,
			CreatedAt:     now,
		}
		if parent != nil {
			pid := parent.ID
			analysis.ParentID = &pid
		}
		if err := s.store.SaveResult(ctx, &repository.SaveResultParams{
			Video:    video,
			Channel:  channel,
			Analysis: analysis,
		}); err != nil {
			return nil, err
		}
		return nil, &NotEvaluableError{Reason: verdict.NotEvalReason}
	}

	reliability := ComputeReliability(verdict.Accuracy, verdict.Clickbait)

	// Recheck suppression: a recheck that scored lower than its parent
	// keeps the parent visible but still charges the credit, since the
	// AI work was performed.
	if req.Recheck && parent != nil && reliability < parent.Reliability {
		if err := s.store.SaveResult(ctx, &repository.SaveResultParams{
			Video:        video,
			Channel:      channel,
			ChargeCredit: true,
			CreditUserID: req.UserID,
		}); err != nil {
			return nil, err
		}
		logger.CtxInfo(ctx, "Recheck suppressed: new reliability %d below parent %d", reliability, parent.Reliability)
		return &AnalyzeResult{
			AnalysisID: parent.ID,
			Message:    "re-evaluation scored lower; previous result kept",
			CreditUsed: true,
		}, nil
	}

	analysis := &domain.Analysis{
		ID:               uuid.New().String(),
		VideoID:          req.Video.ID,
		ChannelID:        req.Video.ChannelID,
		UserID:           userID,
		Accuracy:         verdict.Accuracy,
		Clickbait:        verdict.Clickbait,
		Reliability:      reliability,
		Tier:             TierFor(reliability),
		Summary:          verdict.Summary,
		Rationale:        verdict.Rationale,
		Overall:          verdict.Overall,
		RecommendedTitle: verdict.RecommendedTitle,
		IsRecheck:        req.Recheck,
		RequestCount:     1,
		CreatedAt:        now,
	}
	if parent != nil {
		pid := parent.ID
		analysis.ParentID = &pid
	}

	if err := s.store.SaveResult(ctx, &repository.SaveResultParams{
		Video:        video,
		Channel:      channel,
		Analysis:     analysis,
		ChargeCredit: req.Recheck,
		CreditUserID: req.UserID,
	}); err != nil {
		return nil, err
	}

	if s.notifier != nil && req.Video.CategoryID != "" {
		s.notifier.NotifyCategory(req.Video.CategoryID)
	}

	return &AnalyzeResult{
		AnalysisID: analysis.ID,
		Message:    "analysis completed",
		CreditUsed: req.Recheck,
	}, nil
}

func transcriptChars(items []domain.TranscriptItem) int {
	total := 0
	for _, item := range items {
		total += len(item.Text)
	}
	return total
}
