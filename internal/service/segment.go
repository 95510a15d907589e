package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/minsu/vericlip/internal/domain"
)

// Segmentation thresholds. A chunk closes on a long silence, on a
// moderate silence once the chunk is already substantial, or when it
// hits the hard duration ceiling. Coalescing then bounds the number of
// per-chunk AI calls regardless of video length.
const (
	forcedSplitGapSeconds = 5.0
	softSplitGapSeconds   = 1.5
	minChunkSeconds       = 90.0
	maxChunkSeconds       = 300.0
	maxChunkCount         = 10
	textWindowChars       = 5000
)

// Short-form thresholds: content this small is summarized holistically
// in a single call, skipping segmentation entirely.
const (
	shortFormMaxSeconds = 90
	shortFormMaxItems   = 30
	shortFormMaxChars   = 1500
)

// timestampMarker matches an explicit [mm:ss] or [hh:mm:ss] marker at
// the start of a line in untimed transcript text.
var timestampMarker = regexp.MustCompile(`^\[?(\d{1,2}:)?\d{1,2}:\d{2}\]?`)

// IsShortForm reports whether the transcript is small enough to skip
// segmentation: a single holistic call is cheaper and equally accurate
// for short-form material.
// Parameters:
//   - items: ordered transcript items.
//   - durationSeconds: video duration from metadata.
// Returns:
//   - bool: true when segmentation should be skipped.
func IsShortForm(items []domain.TranscriptItem, durationSeconds int) bool {
	if durationSeconds > 0 && durationSeconds <= shortFormMaxSeconds {
		return true
	}
	if len(items) <= shortFormMaxItems {
		return true
	}
	total := 0
	for _, item := range items {
		total += len(item.Text)
	}
	return total <= shortFormMaxChars
}

// IsShortFormText is the untimed-text counterpart of IsShortForm.
// Parameters:
//   - text: raw transcript text without per-item timing.
//   - durationSeconds: video duration from metadata.
// Returns:
//   - bool: true when segmentation should be skipped.
func IsShortFormText(text string, durationSeconds int) bool {
	if durationSeconds > 0 && durationSeconds <= shortFormMaxSeconds {
		return true
	}
	return len(text) <= shortFormMaxChars
}

// SplitTranscript splits timed transcript items into coherent,
// time-ordered chunks using silence-gap segmentation, then coalesces
// the result down to at most maxChunkCount chunks.
// Parameters:
//   - items: ordered transcript items with per-item timing.
// Returns:
//   - []domain.TranscriptChunk: merged chunks, at most maxChunkCount.
func SplitTranscript(items []domain.TranscriptItem) []domain.TranscriptChunk {
	if len(items) == 0 {
		return nil
	}

	var chunks []domain.TranscriptChunk
	var texts []string
	chunkStart := items[0].Start

	flush := func() {
		if len(texts) == 0 {
			return
		}
		chunks = append(chunks, domain.TranscriptChunk{
			Timestamp: formatTimestamp(chunkStart),
			Text:      strings.Join(texts, " "),
		})
		texts = texts[:0]
	}

	for i, item := range items {
		texts = append(texts, strings.TrimSpace(item.Text))

		itemEnd := item.Start + item.Duration
		elapsed := itemEnd - chunkStart

		split := false
		if i+1 < len(items) {
			gap := items[i+1].Start - itemEnd
			if gap >= forcedSplitGapSeconds {
				split = true
			} else if gap >= softSplitGapSeconds && elapsed >= minChunkSeconds {
				split = true
			}
		}
		if elapsed >= maxChunkSeconds {
			split = true
		}

		if split && i+1 < len(items) {
			flush()
			chunkStart = items[i+1].Start
		}
	}
	flush()

	return coalesceChunks(chunks, maxChunkCount)
}

// SplitPlainText splits untimed transcript text into fixed-size
// windows, re-anchoring the chunk timestamp whenever a line carries an
// explicit timestamp marker.
// Parameters:
//   - text: raw transcript text without per-item timing.
// Returns:
//   - []domain.TranscriptChunk: merged chunks, at most maxChunkCount.
func SplitPlainText(text string) []domain.TranscriptChunk {
	lines := strings.Split(text, "\n")

	var chunks []domain.TranscriptChunk
	var buf strings.Builder
	anchor := "00:00"
	chunkAnchor := anchor

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		chunks = append(chunks, domain.TranscriptChunk{
			Timestamp: chunkAnchor,
			Text:      strings.TrimSpace(buf.String()),
		})
		buf.Reset()
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if marker := timestampMarker.FindString(trimmed); marker != "" {
			anchor = strings.Trim(marker, "[]")
		}
		if buf.Len() == 0 {
			chunkAnchor = anchor
		}
		buf.WriteString(trimmed)
		buf.WriteString("\n")

		if buf.Len() >= textWindowChars {
			flush()
		}
	}
	flush()

	return coalesceChunks(chunks, maxChunkCount)
}

// coalesceChunks merges adjacent chunks into exactly limit contiguous
// groups, sized as evenly as possible. The first sub-chunk's timestamp
// becomes the group's timestamp.
func coalesceChunks(chunks []domain.TranscriptChunk, limit int) []domain.TranscriptChunk {
	if len(chunks) <= limit {
		return chunks
	}

	base := len(chunks) / limit
	extra := len(chunks) % limit

	merged := make([]domain.TranscriptChunk, 0, limit)
	start := 0
	for g := 0; g < limit; g++ {
		size := base
		if g < extra {
			size++
		}
		end := start + size

		texts := make([]string, 0, size)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}
		merged = append(merged, domain.TranscriptChunk{
			Timestamp: chunks[start].Timestamp,
			Text:      strings.Join(texts, "\n"),
		})
		start = end
	}
	return merged
}

// JoinTranscript concatenates transcript items into one text block.
func JoinTranscript(items []domain.TranscriptItem) string {
	texts := make([]string, 0, len(items))
	for _, item := range items {
		if t := strings.TrimSpace(item.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, " ")
}

// formatTimestamp renders a second offset as MM:SS, or HH:MM:SS past
// the first hour.
func formatTimestamp(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
