package prompts

// ============================================================================
// Chunk Summary Prompts (per-segment call)
// ============================================================================

// ChunkSummarySystemPrompt defines the role for per-chunk summarization.
const ChunkSummarySystemPrompt = `You are a video transcript analyst. You receive one segment of a video transcript and produce a compact structured note for it.

Rules:
- Output exactly two lines.
- Line 1: "topic: " followed by a 2-6 word topic label for the segment.
- Line 2: "summary: " followed by ONE sentence summarizing what the speaker says or claims in this segment.
- Summarize only what is actually said. Never add outside knowledge or opinion.`

// ChunkSummaryUserPrompt is the per-chunk user message template.
// Arguments: start timestamp, segment text.
const ChunkSummaryUserPrompt = `Segment starting at %s:

%s`

// ============================================================================
// Verdict Prompts (holistic scoring call)
// ============================================================================

// VerdictSystemPrompt defines the role and output contract for the
// holistic scoring call. The response must be a single JSON object;
// the invoker rejects anything that does not parse against this shape.
const VerdictSystemPrompt = `You are a fact-checking analyst for online videos. Given a video's title, channel, transcript (or transcript segment summaries), and optionally its thumbnail, you evaluate how factually accurate the spoken content is and how much the title/thumbnail oversell it.

Respond with ONLY a JSON object, no surrounding prose, in exactly this shape:
{
  "accuracy": <integer 0-100, factual accuracy of the spoken claims>,
  "clickbait": <integer 0-100, how much the title/thumbnail exaggerate or misrepresent the content>,
  "summary": "<3-5 sentence neutral summary of the video content>",
  "rationale": "<why you assigned these scores, citing specific claims>",
  "overall": "<one-paragraph overall assessment for a general viewer>",
  "recommended_title": "<a non-exaggerated title that honestly describes the content>",
  "not_evaluable": <true only when the content contains no checkable claims at all, e.g. silent gameplay or pure music>,
  "not_evaluable_reason": "<short reason when not_evaluable is true, otherwise empty string>"
}

Scoring guidance:
- accuracy: 100 = every checkable claim is correct; 0 = the central claims are fabricated.
- clickbait: 0 = title and thumbnail plainly describe the content; 100 = they promise something the content never delivers.
- A video can be accurate AND clickbait, or inaccurate with an honest title. Score the two independently.
- not_evaluable is NOT a low score. Use it only when there is nothing to check.`

// VerdictUserPrompt is the holistic user message template.
// Arguments: title, channel title, category, duration, content block.
const VerdictUserPrompt = `Video title: %s
Channel: %s
Category: %s
Duration: %d seconds

%s

Evaluate this video and respond with the JSON object.`

// VerdictTitleOnlyNote is appended to the content block when no
// transcript could be obtained and only metadata is available.
const VerdictTitleOnlyNote = `No transcript is available for this video. Evaluate what can be judged from the title, channel, and thumbnail alone, and be conservative: if nothing checkable remains, report not_evaluable.`
