package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/podsight/ai"
	"github.com/poiesic/podsight/core"
)

const extractionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "insights": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "category": {
            "type": "string"
          },
          "text": {
            "type": "string"
          },
          "timestamp_seconds": {
            "type": "number",
            "minimum": -1
          }
        },
        "required": ["category", "text"],
        "additionalProperties": false
      }
    }
  },
  "required": ["insights"],
  "additionalProperties": false
}`

const extractionPromptTemplate = `You analyze podcast transcripts about AI and machine learning and extract the noteworthy insights as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- The category field must match exactly one of: %s.
- The text field is a single self-contained sentence stating the insight. A reader who has not heard the episode must understand it.
- Use timestamp_seconds to record where in the episode the insight was made. Transcript lines are prefixed with their offset like [123.4]. Use -1 if the location is unclear.
- bold_claim: assertive predictions or strong claims made by a speaker.
- technical_breakthrough: new capabilities, results, or techniques described as significant advances.
- workflow_improvement: practical changes to how practitioners work.
- trend_shift: changes in direction for the field, industry, or research focus.
- tool: specific software, products, or services mentioned as useful.
- dataset: specific datasets or benchmarks mentioned.
- related_content: papers, posts, talks, or other episodes referenced.
- event_response: reactions to recent news or events.
- credibility_flag: hype, unsupported claims, or conflicts of interest worth scrutiny.
- Include only insights actually present in the transcript. Do not hallucinate.
- If the transcript chunk contains no noteworthy insights, return "insights": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

// correctionPromptTemplate asks the model to fix output that failed schema
// validation. Used for exactly one re-prompt per chunk.
const correctionPromptTemplate = `Your previous response could not be parsed: %s

Return the SAME insights again as valid JSON following the schema exactly. Output only the JSON object, nothing else.`

const synthesisPromptTemplate = `You answer questions about AI podcast episodes using ONLY the episode summaries provided below.

Rules:
- Base every statement on the provided summaries. Do not use outside knowledge and do not speculate.
- Cite the episodes you draw on inline using their bracketed IDs exactly as given, e.g. [dQw4w9WgXcQ].
- If the summaries do not contain enough information to answer, say so plainly instead of guessing.
- Be concise and conversational.

Episode summaries:

%s`

const synthesisNoContextPrompt = `You answer questions about AI podcast episodes. No relevant episode summaries were found for this question. Tell the user briefly that nothing in the indexed episodes covers their question, and do not invent an answer.`

// buildExtractionPrompt creates the extraction system prompt with the schema
// and category set embedded.
func buildExtractionPrompt() string {
	return fmt.Sprintf(extractionPromptTemplate,
		extractionResponseSchema,
		strings.Join(core.InsightCategories, ", "))
}

// buildSynthesisPrompt creates the synthesis system prompt carrying the
// retrieved passages.
func buildSynthesisPrompt(passages []ai.Passage) string {
	if len(passages) == 0 {
		return synthesisNoContextPrompt
	}

	var sb strings.Builder
	for _, p := range passages {
		fmt.Fprintf(&sb, "[%s] %s\n%s\n\n", p.EpisodeId, p.Title, p.Text)
	}
	return fmt.Sprintf(synthesisPromptTemplate, strings.TrimSpace(sb.String()))
}

// formatTranscriptChunk renders segments with their start offsets so the
// model can report insight timestamps.
func formatTranscriptChunk(segments []core.Segment) string {
	var sb strings.Builder
	for _, segment := range segments {
		fmt.Fprintf(&sb, "[%.1f] %s\n", segment.Start.Seconds(), segment.Text)
	}
	return sb.String()
}
