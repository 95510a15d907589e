package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/minsu/vericlip/internal/domain"
	"github.com/minsu/vericlip/internal/lock"
	"github.com/minsu/vericlip/internal/repository"
	"gorm.io/gorm"
)

// fakeBackend implements AnalysisStore, VideoStore and CreditStore over
// in-memory maps, mimicking the transactional credit guard.
type fakeBackend struct {
	mu       sync.Mutex
	latest   map[string]*domain.Analysis
	videos   map[string]*domain.Video
	balances map[string]int
	saves    []repository.SaveResultParams
	bumps    int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		latest:   map[string]*domain.Analysis{},
		videos:   map[string]*domain.Video{},
		balances: map[string]int{},
	}
}

func (f *fakeBackend) GetLatestByVideoID(_ context.Context, videoID string) (*domain.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.latest[videoID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *a
	return &c, nil
}

func (f *fakeBackend) BumpRequestCount(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bumps++
	return nil
}

func (f *fakeBackend) SaveResult(_ context.Context, params *repository.SaveResultParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if params.ChargeCredit {
		if f.balances[params.CreditUserID] < 1 {
			return repository.ErrInsufficientCredit
		}
		f.balances[params.CreditUserID]--
	}
	if params.Video != nil {
		v := *params.Video
		f.videos[v.ID] = &v
	}
	if params.Analysis != nil {
		a := *params.Analysis
		f.latest[a.VideoID] = &a
	}
	f.saves = append(f.saves, *params)
	return nil
}

func (f *fakeBackend) GetByID(_ context.Context, id string) (*domain.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *v
	return &c, nil
}

func (f *fakeBackend) GetBalance(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID], nil
}

// fakeAI implements VerdictClient with a fixed verdict.
type fakeAI struct {
	verdict    Verdict
	err        error
	delay      time.Duration
	scoreCalls int32
	mu         sync.Mutex
	lastInput  *VerdictInput
	chunkCalls int32
}

func (f *fakeAI) SummarizeChunks(_ context.Context, chunks []domain.TranscriptChunk) []ChunkSummary {
	atomic.AddInt32(&f.chunkCalls, int32(len(chunks)))
	out := make([]ChunkSummary, len(chunks))
	for i, c := range chunks {
		out[i] = ChunkSummary{Timestamp: c.Timestamp, Text: "summary of " + c.Timestamp}
	}
	return out
}

func (f *fakeAI) ScoreVideo(ctx context.Context, in *VerdictInput) (*Verdict, error) {
	atomic.AddInt32(&f.scoreCalls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.lastInput = in
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	v := f.verdict
	return &v, nil
}

// fakeFetcher implements TranscriptFetcher.
type fakeFetcher struct {
	items []domain.TranscriptItem
	err   error
	calls int32
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) ([]domain.TranscriptItem, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.items, f.err
}

// fakeNotifier implements RankNotifier.
type fakeNotifier struct {
	mu         sync.Mutex
	categories []string
}

func (f *fakeNotifier) NotifyCategory(categoryID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories = append(f.categories, categoryID)
}

func goodVerdict() Verdict {
	return Verdict{
		Accuracy:         80,
		Clickbait:        20,
		Summary:          "solid content",
		Rationale:        "claims check out",
		Overall:          "trustworthy",
		RecommendedTitle: "a plain title",
	}
}

// longFormTranscript returns a transcript that clears every short-form
// threshold.
func longFormTranscript() []domain.TranscriptItem {
	items := make([]domain.TranscriptItem, 40)
	for i := range items {
		items[i] = domain.TranscriptItem{
			Text:     fmt.Sprintf("segment %d of a long discussion with many detailed claims", i),
			Start:    float64(i) * 15.0,
			Duration: 15.0,
		}
	}
	return items
}

func videoRef() domain.VideoRef {
	return domain.VideoRef{
		ID:              "vid-1",
		Title:           "I tested this so you don't have to",
		CategoryID:      "28",
		ChannelID:       "chan-1",
		ChannelTitle:    "Test Channel",
		DurationSeconds: 600,
		ThumbnailURL:    "https://img.example/v1.jpg",
	}
}

func newTestService(backend *fakeBackend, ai *fakeAI, fetcher TranscriptFetcher, notifier RankNotifier) *AnalyzeService {
	return NewAnalyzeService(
		lock.NewKeyedMutex(),
		backend,
		backend,
		backend,
		fetcher,
		ai,
		notifier,
		AnalyzeConfig{MinTranscriptChars: 100, LockWaitTimeout: 5 * time.Second},
	)
}

// TestAnalyzeHappyPath verifies a full fresh evaluation end to end
func TestAnalyzeHappyPath(t *testing.T) {
	backend := newFakeBackend()
	ai := &fakeAI{verdict: goodVerdict()}
	notifier := &fakeNotifier{}
	svc := newTestService(backend, ai, &fakeFetcher{}, notifier)

	result, err := svc.Analyze(context.Background(), &AnalyzeRequest{
		Video:      videoRef(),
		Transcript: longFormTranscript(),
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.AnalysisID == "" {
		t.Fatal("Expected an analysis ID")
	}
	if result.CreditUsed || result.CacheHit {
		t.Error("Fresh evaluation should use no credit and miss the cache")
	}

	if len(backend.saves) != 1 {
		t.Fatalf("Expected 1 save, got %d", len(backend.saves))
	}
	saved := backend.saves[0]
	if saved.Analysis == nil {
		t.Fatal("Expected an analysis record")
	}
	if saved.Analysis.Reliability != 80 {
		t.Errorf("Reliability: got %d, want 80", saved.Analysis.Reliability)
	}
	if saved.Analysis.Tier != domain.TierGreen {
		t.Errorf("Tier: got %q, want %q", saved.Analysis.Tier, domain.TierGreen)
	}
	if saved.ChargeCredit {
		t.Error("Fresh evaluation must not charge credit")
	}
	if saved.Channel == nil || saved.Channel.ID != "chan-1" {
		t.Error("Channel should be persisted alongside the video")
	}

	// 600s contiguous transcript splits at the duration ceiling into 2 chunks.
	if got := atomic.LoadInt32(&ai.chunkCalls); got != 2 {
		t.Errorf("Chunk summaries: got %d, want 2", got)
	}
	if len(notifier.categories) != 1 || notifier.categories[0] != "28" {
		t.Errorf("Ranking notification: got %v", notifier.categories)
	}
}

// TestAnalyzeConcurrentSameVideo verifies racing requests serialize into one evaluation
func TestAnalyzeConcurrentSameVideo(t *testing.T) {
	backend := newFakeBackend()
	ai := &fakeAI{verdict: goodVerdict(), delay: 20 * time.Millisecond}
	svc := newTestService(backend, ai, &fakeFetcher{}, &fakeNotifier{})

	const n = 5
	results := make([]*AnalyzeResult, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Analyze(context.Background(), &AnalyzeRequest{
				Video:      videoRef(),
				Transcript: longFormTranscript(),
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("Request %d failed: %v", i, errs[i])
		}
	}
	if got := atomic.LoadInt32(&ai.scoreCalls); got != 1 {
		t.Errorf("Holistic AI calls: got %d, want 1", got)
	}
	hits := 0
	for i := 1; i < n; i++ {
		if results[i].AnalysisID != results[0].AnalysisID {
			t.Errorf("Request %d got a different analysis ID", i)
		}
	}
	for i := 0; i < n; i++ {
		if results[i].CacheHit {
			hits++
		}
	}
	if hits != n-1 {
		t.Errorf("Cache hits: got %d, want %d", hits, n-1)
	}
}

// TestAnalyzeCacheHit verifies a stored analysis answers without AI work
func TestAnalyzeCacheHit(t *testing.T) {
	backend := newFakeBackend()
	backend.latest["vid-1"] = &domain.Analysis{ID: "an-1", VideoID: "vid-1", Reliability: 75}
	ai := &fakeAI{verdict: goodVerdict()}
	svc := newTestService(backend, ai, &fakeFetcher{}, &fakeNotifier{})

	result, err := svc.Analyze(context.Background(), &AnalyzeRequest{Video: videoRef()})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !result.CacheHit || result.AnalysisID != "an-1" {
		t.Errorf("Expected cache hit on an-1, got %+v", result)
	}
	if atomic.LoadInt32(&ai.scoreCalls) != 0 {
		t.Error("Cache hit must not call the AI")
	}
	if backend.bumps != 1 {
		t.Errorf("Request count bumps: got %d, want 1", backend.bumps)
	}
}

// TestAnalyzeNotEvaluableCached verifies a stored not-evaluable outcome short-circuits
func TestAnalyzeNotEvaluableCached(t *testing.T) {
	backend := newFakeBackend()
	backend.latest["vid-1"] = &domain.Analysis{
		ID: "an-1", VideoID: "vid-1", NotEvaluable: true, NotEvalReason: "no factual claims",
	}
	ai := &fakeAI{verdict: goodVerdict()}
	svc := newTestService(backend, ai, &fakeFetcher{}, &fakeNotifier{})

	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{Video: videoRef()})
	var ne *NotEvaluableError
	if !errors.As(err, &ne) {
		t.Fatalf("Expected NotEvaluableError, got %v", err)
	}
	if !ne.Cached || ne.Reason != "no factual claims" {
		t.Errorf("Unexpected error detail: %+v", ne)
	}
	if atomic.LoadInt32(&ai.scoreCalls) != 0 {
		t.Error("Cached not-evaluable must not call the AI")
	}
	if backend.bumps != 1 {
		t.Errorf("Request count bumps: got %d, want 1", backend.bumps)
	}
}

// TestAnalyzeEligibilityRejection verifies the gate runs before everything else
func TestAnalyzeEligibilityRejection(t *testing.T) {
	backend := newFakeBackend()
	ai := &fakeAI{verdict: goodVerdict()}
	fetcher := &fakeFetcher{}
	svc := newTestService(backend, ai, fetcher, &fakeNotifier{})

	ref := videoRef()
	ref.Title = "Artist - Song (Official MV)"
	ref.CategoryID = "10"

	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{Video: ref})
	var ie *IneligibleError
	if !errors.As(err, &ie) {
		t.Fatalf("Expected IneligibleError, got %v", err)
	}
	if ie.Code != ReasonBareMusicUpload {
		t.Errorf("Code: got %q, want %q", ie.Code, ReasonBareMusicUpload)
	}
	if atomic.LoadInt32(&ai.scoreCalls) != 0 || atomic.LoadInt32(&fetcher.calls) != 0 {
		t.Error("Rejected video must not reach transcript or AI stages")
	}
}

// TestAnalyzeTitleOnlyDegradation verifies a missing transcript degrades rather than fails
func TestAnalyzeTitleOnlyDegradation(t *testing.T) {
	backend := newFakeBackend()
	ai := &fakeAI{verdict: goodVerdict()}
	fetcher := &fakeFetcher{} // returns no items
	svc := newTestService(backend, ai, fetcher, &fakeNotifier{})

	result, err := svc.Analyze(context.Background(), &AnalyzeRequest{Video: videoRef()})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.AnalysisID == "" {
		t.Fatal("Expected an analysis ID")
	}
	if atomic.LoadInt32(&fetcher.calls) != 1 {
		t.Errorf("Transcript fetch attempts: got %d, want 1", fetcher.calls)
	}
	if ai.lastInput == nil || !ai.lastInput.TitleOnly {
		t.Error("Expected title-only verdict input")
	}
	if atomic.LoadInt32(&ai.chunkCalls) != 0 {
		t.Error("Title-only run must not summarize chunks")
	}
}

// TestAnalyzeRecheckRequiresIdentity verifies anonymous rechecks are rejected
func TestAnalyzeRecheckRequiresIdentity(t *testing.T) {
	svc := newTestService(newFakeBackend(), &fakeAI{}, &fakeFetcher{}, &fakeNotifier{})

	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{Video: videoRef(), Recheck: true})
	if !errors.Is(err, ErrIdentityRequired) {
		t.Fatalf("Expected ErrIdentityRequired, got %v", err)
	}
}

// TestAnalyzeRecheckWithoutParent verifies a recheck needs a prior analysis
func TestAnalyzeRecheckWithoutParent(t *testing.T) {
	svc := newTestService(newFakeBackend(), &fakeAI{}, &fakeFetcher{}, &fakeNotifier{})

	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{
		Video: videoRef(), Recheck: true, UserID: "user-1",
	})
	if !errors.Is(err, ErrRecheckNoParent) {
		t.Fatalf("Expected ErrRecheckNoParent, got %v", err)
	}
}

// recheckBackend seeds a backend with a prior analysis and a stored
// video snapshot whose title differs from the live request.
func recheckBackend(parentReliability, balance int) *fakeBackend {
	backend := newFakeBackend()
	backend.latest["vid-1"] = &domain.Analysis{
		ID: "an-parent", VideoID: "vid-1", Reliability: parentReliability, Tier: domain.TierGreen,
	}
	backend.videos["vid-1"] = &domain.Video{
		ID: "vid-1", Title: "the old title", ThumbnailURL: "https://img.example/old.jpg",
	}
	backend.balances["user-1"] = balance
	return backend
}

// TestAnalyzeRecheckNoContentChange verifies unchanged metadata never reaches paid work
func TestAnalyzeRecheckNoContentChange(t *testing.T) {
	backend := recheckBackend(80, 3)
	ref := videoRef()
	backend.videos["vid-1"] = &domain.Video{ID: "vid-1", Title: ref.Title, ThumbnailURL: ref.ThumbnailURL}
	ai := &fakeAI{verdict: goodVerdict()}
	svc := newTestService(backend, ai, &fakeFetcher{}, &fakeNotifier{})

	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{
		Video: ref, Recheck: true, UserID: "user-1",
	})
	if !errors.Is(err, ErrNoContentChange) {
		t.Fatalf("Expected ErrNoContentChange, got %v", err)
	}
	if atomic.LoadInt32(&ai.scoreCalls) != 0 {
		t.Error("Unchanged recheck must not call the AI")
	}
	if backend.balances["user-1"] != 3 {
		t.Errorf("Balance should be untouched, got %d", backend.balances["user-1"])
	}
}

// TestAnalyzeRecheckInsufficientCredit verifies the pre-check blocks before AI work
func TestAnalyzeRecheckInsufficientCredit(t *testing.T) {
	backend := recheckBackend(80, 0)
	ai := &fakeAI{verdict: goodVerdict()}
	svc := newTestService(backend, ai, &fakeFetcher{}, &fakeNotifier{})

	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{
		Video: videoRef(), Recheck: true, UserID: "user-1", Transcript: longFormTranscript(),
	})
	if !errors.Is(err, repository.ErrInsufficientCredit) {
		t.Fatalf("Expected ErrInsufficientCredit, got %v", err)
	}
	if atomic.LoadInt32(&ai.scoreCalls) != 0 {
		t.Error("Broke user must not trigger AI work")
	}
}

// TestAnalyzeRecheckTranscriptRequired verifies rechecks hard-fail without a transcript
func TestAnalyzeRecheckTranscriptRequired(t *testing.T) {
	backend := recheckBackend(80, 3)
	svc := newTestService(backend, &fakeAI{verdict: goodVerdict()}, &fakeFetcher{}, &fakeNotifier{})

	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{
		Video: videoRef(), Recheck: true, UserID: "user-1",
	})
	if !errors.Is(err, ErrTranscriptRequired) {
		t.Fatalf("Expected ErrTranscriptRequired, got %v", err)
	}
}

// TestAnalyzeRecheckImproved verifies an improved recheck replaces the parent and charges
func TestAnalyzeRecheckImproved(t *testing.T) {
	backend := recheckBackend(50, 2)
	ai := &fakeAI{verdict: goodVerdict()} // reliability 80 > parent 50
	svc := newTestService(backend, ai, &fakeFetcher{}, &fakeNotifier{})

	result, err := svc.Analyze(context.Background(), &AnalyzeRequest{
		Video: videoRef(), Recheck: true, UserID: "user-1", Transcript: longFormTranscript(),
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !result.CreditUsed {
		t.Error("Recheck must consume a credit")
	}
	if result.AnalysisID == "an-parent" {
		t.Error("Improved recheck should produce a new analysis")
	}
	if backend.balances["user-1"] != 1 {
		t.Errorf("Balance: got %d, want 1", backend.balances["user-1"])
	}
	saved := backend.saves[len(backend.saves)-1]
	if saved.Analysis == nil || !saved.Analysis.IsRecheck {
		t.Fatal("Expected a recheck analysis record")
	}
	if saved.Analysis.ParentID == nil || *saved.Analysis.ParentID != "an-parent" {
		t.Error("Recheck should link its parent")
	}
	if !saved.ChargeCredit {
		t.Error("Recheck save must charge the credit in the same transaction")
	}
}

// TestAnalyzeRecheckSuppression verifies a lower score keeps the parent but still charges
func TestAnalyzeRecheckSuppression(t *testing.T) {
	backend := recheckBackend(90, 2)
	ai := &fakeAI{verdict: goodVerdict()} // reliability 80 < parent 90
	svc := newTestService(backend, ai, &fakeFetcher{}, &fakeNotifier{})

	result, err := svc.Analyze(context.Background(), &AnalyzeRequest{
		Video: videoRef(), Recheck: true, UserID: "user-1", Transcript: longFormTranscript(),
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.AnalysisID != "an-parent" {
		t.Errorf("Suppressed recheck should surface the parent, got %s", result.AnalysisID)
	}
	if !result.CreditUsed {
		t.Error("Suppressed recheck still consumes the credit")
	}
	if backend.balances["user-1"] != 1 {
		t.Errorf("Balance: got %d, want 1", backend.balances["user-1"])
	}
	saved := backend.saves[len(backend.saves)-1]
	if saved.Analysis != nil {
		t.Error("Suppressed recheck must not insert a new analysis")
	}
	if !saved.ChargeCredit {
		t.Error("Suppressed recheck must still charge the credit")
	}
	if got := backend.latest["vid-1"].ID; got != "an-parent" {
		t.Errorf("Latest analysis should remain the parent, got %s", got)
	}
}

// TestAnalyzeNotEvaluableVerdict verifies a not-evaluable verdict persists without charging
func TestAnalyzeNotEvaluableVerdict(t *testing.T) {
	backend := newFakeBackend()
	ai := &fakeAI{verdict: Verdict{NotEvaluable: true, NotEvalReason: "pure music performance"}}
	svc := newTestService(backend, ai, &fakeFetcher{}, &fakeNotifier{})

	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{
		Video: videoRef(), Transcript: longFormTranscript(),
	})
	var ne *NotEvaluableError
	if !errors.As(err, &ne) {
		t.Fatalf("Expected NotEvaluableError, got %v", err)
	}
	if ne.Cached {
		t.Error("Fresh not-evaluable verdict should not be marked cached")
	}

	if len(backend.saves) != 1 {
		t.Fatalf("Expected 1 save, got %d", len(backend.saves))
	}
	saved := backend.saves[0]
	if saved.Analysis == nil || !saved.Analysis.NotEvaluable {
		t.Fatal("Not-evaluable outcome must be persisted")
	}
	if saved.ChargeCredit {
		t.Error("Not-evaluable outcome must not charge credit")
	}
}

// TestAnalyzeInvalidRequest verifies input validation
func TestAnalyzeInvalidRequest(t *testing.T) {
	svc := newTestService(newFakeBackend(), &fakeAI{}, &fakeFetcher{}, &fakeNotifier{})

	testCases := []struct {
		name string
		req  *AnalyzeRequest
	}{
		{name: "nil request", req: nil},
		{name: "missing video id", req: &AnalyzeRequest{Video: domain.VideoRef{Title: "t"}}},
		{name: "missing title", req: &AnalyzeRequest{Video: domain.VideoRef{ID: "v"}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Analyze(context.Background(), tc.req); !errors.Is(err, ErrInvalidVideoRef) {
				t.Errorf("Expected ErrInvalidVideoRef, got %v", err)
			}
		})
	}
}

// TestAnalyzeZeroScoreReevaluated verifies a stored zero-reliability record does not short-circuit
func TestAnalyzeZeroScoreReevaluated(t *testing.T) {
	backend := newFakeBackend()
	backend.latest["vid-1"] = &domain.Analysis{
		ID:      "an-0",
		VideoID: "vid-1",
	}
	ai := &fakeAI{verdict: goodVerdict()}
	svc := newTestService(backend, ai, &fakeFetcher{}, &fakeNotifier{})

	result, err := svc.Analyze(context.Background(), &AnalyzeRequest{
		Video:      videoRef(),
		Transcript: longFormTranscript(),
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.CacheHit {
		t.Error("Zero-reliability record must not count as a cache hit")
	}
	if result.AnalysisID == "an-0" {
		t.Error("Expected a fresh analysis ID")
	}
	if got := atomic.LoadInt32(&ai.scoreCalls); got != 1 {
		t.Errorf("Score calls: got %d, want 1", got)
	}
	if backend.latest["vid-1"].Reliability != 80 {
		t.Errorf("Latest reliability: got %d, want 80", backend.latest["vid-1"].Reliability)
	}
}

// TestAnalyzeRawTextTranscript verifies untimed text goes through window segmentation
func TestAnalyzeRawTextTranscript(t *testing.T) {
	backend := newFakeBackend()
	ai := &fakeAI{verdict: goodVerdict()}
	fetcher := &fakeFetcher{}
	svc := newTestService(backend, ai, fetcher, &fakeNotifier{})

	// 80 lines of 100 chars cross the window size once, yielding 2 chunks.
	var sb strings.Builder
	line := strings.Repeat("a", 100)
	for i := 0; i < 80; i++ {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	rawText := strings.TrimSpace(sb.String())

	result, err := svc.Analyze(context.Background(), &AnalyzeRequest{
		Video:          videoRef(),
		TranscriptText: rawText,
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.AnalysisID == "" {
		t.Fatal("Expected an analysis ID")
	}
	if got := atomic.LoadInt32(&fetcher.calls); got != 0 {
		t.Errorf("Fetch calls: got %d, want 0 (caller text suffices)", got)
	}
	if got := atomic.LoadInt32(&ai.chunkCalls); got != 2 {
		t.Errorf("Chunk summaries: got %d, want 2", got)
	}

	ai.mu.Lock()
	in := ai.lastInput
	ai.mu.Unlock()
	if in.TitleOnly || in.ShortForm {
		t.Error("Long raw text must be treated as long-form")
	}
	if in.Transcript != rawText {
		t.Error("Verdict input should carry the raw text")
	}
}

// TestAnalyzeRequestDeadline verifies the configured timeout bounds the pipeline
func TestAnalyzeRequestDeadline(t *testing.T) {
	backend := newFakeBackend()
	ai := &fakeAI{verdict: goodVerdict(), delay: 200 * time.Millisecond}
	svc := NewAnalyzeService(
		lock.NewKeyedMutex(),
		backend,
		backend,
		backend,
		&fakeFetcher{},
		ai,
		&fakeNotifier{},
		AnalyzeConfig{
			MinTranscriptChars: 100,
			LockWaitTimeout:    5 * time.Second,
			RequestTimeout:     20 * time.Millisecond,
		},
	)

	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{
		Video:      videoRef(),
		Transcript: longFormTranscript(),
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline error, got %v", err)
	}
	if len(backend.saves) != 0 {
		t.Errorf("Expected no save after timeout, got %d", len(backend.saves))
	}
}
