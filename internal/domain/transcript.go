package domain

// TranscriptItem is a single timed caption fragment.
// Start and Duration are in seconds; items are ordered by Start.
type TranscriptItem struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// TranscriptChunk is a merged window of transcript text produced by
// segmentation. Chunks are never persisted; they exist only as input
// to the per-chunk summarization calls.
type TranscriptChunk struct {
	Timestamp string `json:"timestamp"` // formatted start offset, MM:SS or HH:MM:SS
	Text      string `json:"text"`
}
