package service

import "strings"

// Stable eligibility rejection reason codes.
const (
	ReasonBareMusicUpload    = "bare-music-upload"
	ReasonLiveOrRebroadcast  = "live-or-rebroadcast"
	ReasonSummaryOnly        = "summary-only-no-commentary"
	ReasonPassiveGame        = "passive-category-playback-game"
	ReasonPassiveSports      = "passive-category-playback-sports"
	ReasonPassiveFilm        = "passive-category-playback-film"
	ReasonPassivePerformance = "passive-category-playback-performance"
)

// YouTube category IDs the gate treats as passive-playback categories.
const (
	categoryFilm          = "1"
	categoryMusic         = "10"
	categorySports        = "17"
	categoryGaming        = "20"
	categoryEntertainment = "24"
)

// commentaryKeywords override every other pattern: reviews, critiques
// and analyses of any category are always eligible.
var commentaryKeywords = []string{
	"review", "commentary", "analysis", "critique", "breakdown",
	"explained", "reaction", "deep dive", "fact check",
	"리뷰", "해설", "분석", "평론", "반응", "팩트체크",
}

var liveKeywords = []string{
	"live stream", "livestream", "24/7", "rebroadcast", "re-broadcast",
	"생방송", "실시간", "다시보기", "재방송",
}

var summaryOnlyKeywords = []string{
	"recap only", "summary only", "no commentary summary",
	"요약만", "줄거리 요약",
}

var bareMusicKeywords = []string{
	"official audio", "official mv", "music video", "lyric video",
	"lyrics", "full album", "playlist", "가사", "음원", "노래모음",
}

// passiveKeywords per category: raw playback with nothing spoken worth
// checking. A commentary keyword in the title overrides any of these.
var passiveKeywords = map[string][]string{
	categoryGaming:        {"gameplay", "playthrough", "no commentary", "full game", "longplay", "게임플레이", "노코멘터리"},
	categorySports:        {"highlights", "full match", "full game", "하이라이트", "풀경기"},
	categoryFilm:          {"full movie", "trailer", "teaser", "clip", "예고편", "본편"},
	categoryEntertainment: {"performance", "concert", "fancam", "stage", "공연", "직캠", "무대"},
}

var passiveReasons = map[string]string{
	categoryGaming:        ReasonPassiveGame,
	categorySports:        ReasonPassiveSports,
	categoryFilm:          ReasonPassiveFilm,
	categoryEntertainment: ReasonPassivePerformance,
}

// EligibilityGate rejects content that has nothing worth evaluating.
// It is a pure classifier over title and category metadata and runs
// before any lock is acquired or external call is made, so the
// fast-reject path stays cheap.
type EligibilityGate struct{}

// NewEligibilityGate creates the gate.
func NewEligibilityGate() *EligibilityGate {
	return &EligibilityGate{}
}

// Check classifies a video by title and category.
// Parameters:
//   - title: video title as supplied by the caller.
//   - categoryID: platform category code.
// Returns:
//   - *IneligibleError: nil when the video is eligible for evaluation.
func (g *EligibilityGate) Check(title, categoryID string) *IneligibleError {
	lower := strings.ToLower(title)

	// Commentary/review content is always eligible regardless of
	// category. "no commentary" is a passive-playback marker, not an
	// override, so mask it before matching.
	if containsAny(strings.ReplaceAll(lower, "no commentary", ""), commentaryKeywords) {
		return nil
	}

	if containsAny(lower, liveKeywords) {
		return &IneligibleError{
			Code:    ReasonLiveOrRebroadcast,
			Message: "live streams and rebroadcasts are not evaluated",
		}
	}

	// Music-category uploads without an explicit audio/MV marker may
	// still carry spoken content, so the keyword match decides.
	if containsAny(lower, bareMusicKeywords) {
		return &IneligibleError{
			Code:    ReasonBareMusicUpload,
			Message: "bare music uploads contain no checkable claims",
		}
	}

	if containsAny(lower, summaryOnlyKeywords) {
		return &IneligibleError{
			Code:    ReasonSummaryOnly,
			Message: "summary-only uploads without commentary are not evaluated",
		}
	}

	if keywords, ok := passiveKeywords[categoryID]; ok && containsAny(lower, keywords) {
		return &IneligibleError{
			Code:    passiveReasons[categoryID],
			Message: "passive category playback contains no checkable claims",
		}
	}

	return nil
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
