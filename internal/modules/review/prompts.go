package review

import (
	"fmt"
	"strings"
)

const suggestionJSONShape = `{
  "rating": <number between 1.0 and 5.0, one decimal place>,
  "comment": "<the review text, first person, 2-4 sentences>",
  "highlights": ["<short phrase>", "..."],
  "reasoning": "<one or two sentences explaining the rating>"
}`

const visionInstruction = `You are analyzing a photo shared in a dog-walking service chat.
Describe what the photo shows and how it reflects on the service quality.

IMPORTANT: Respond with ONLY a JSON object, no other text:
{
  "description": "<one sentence, what the photo shows>",
  "observations": "<anything notable about the dog's condition, the location, or the care shown>",
  "tags": ["<short tag>", "..."],
  "quality_score": <number 0-10, photo usefulness as a service update>,
  "relevance_score": <number 0-10, how relevant the photo is to the walking service>
}`

// buildSuggestionPrompt renders the full-path prompt from a complete
// conversation analysis report.
func buildSuggestionPrompt(report string, reviewer, target Profile) string {
	var b strings.Builder
	b.WriteString("You are helping a user of a dog-walking marketplace write a review.\n")
	fmt.Fprintf(&b, "The reviewer is %s (%s). They are reviewing %s (%s).\n\n",
		displayName(reviewer), roleLabel(reviewer.Role),
		displayName(target), roleLabel(target.Role))
	b.WriteString(roleGuidance(target.Role))
	b.WriteString("\nBelow is an analysis of their conversation history:\n\n")
	b.WriteString(report)
	b.WriteString("\n\nSuggest a fair review based only on what the conversation shows.\n")
	b.WriteString("ABSOLUTE RULES:\n")
	b.WriteString("- Do NOT invent events that are not in the conversation.\n")
	b.WriteString("- Write the comment in the reviewer's first-person voice.\n")
	b.WriteString("- Keep the comment natural; do not mention this analysis.\n")
	b.WriteString("\nCRITICAL: Respond with ONLY a JSON object in exactly this shape, no other text:\n")
	b.WriteString(suggestionJSONShape)
	return b.String()
}

// buildFastSuggestionPrompt renders the compact prompt used when a cached
// conversation context is available.
func buildFastSuggestionPrompt(cctx *ConversationContext, reviewer, target Profile) string {
	var b strings.Builder
	b.WriteString("You are helping a user of a dog-walking marketplace write a review.\n")
	fmt.Fprintf(&b, "The reviewer is %s (%s). They are reviewing %s (%s).\n\n",
		displayName(reviewer), roleLabel(reviewer.Role),
		displayName(target), roleLabel(target.Role))
	b.WriteString(roleGuidance(target.Role))
	fmt.Fprintf(&b, "\nConversation summary (%d messages):\n%s\n", cctx.MessageCount, cctx.Summary)
	if len(cctx.ImageDescriptions) > 0 {
		b.WriteString("\nPhotos shared in the conversation:\n")
		for _, desc := range cctx.ImageDescriptions {
			b.WriteString("- ")
			b.WriteString(desc)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nSuggest a fair review based only on this summary. Do NOT invent events.\n")
	b.WriteString("Write the comment in the reviewer's first-person voice.\n")
	b.WriteString("\nCRITICAL: Respond with ONLY a JSON object in exactly this shape, no other text:\n")
	b.WriteString(suggestionJSONShape)
	return b.String()
}

func roleGuidance(targetRole string) string {
	if targetRole == "walker" {
		return "Focus on what matters when reviewing a walker: reliability, punctuality, communication, photo updates, and how the dog was treated.\n"
	}
	return "Focus on what matters when reviewing an owner: clear instructions, responsiveness, reasonable expectations, and timely payment.\n"
}

func roleLabel(role string) string {
	switch role {
	case "walker":
		return "dog walker"
	case "owner":
		return "dog owner"
	default:
		return "user"
	}
}

func displayName(p Profile) string {
	if strings.TrimSpace(p.DisplayName) != "" {
		return p.DisplayName
	}
	return "the user"
}
