package review

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pawlink/core/internal/models"
)

// Topic keyword categories. A chunk is tagged with a category when any of its
// keywords appears anywhere in the chunk's text.
var topicKeywords = map[string][]string{
	"scheduling": {"schedule", "time", "today", "tomorrow", "tonight", "morning", "afternoon", "when", "available", "book", "booking", "cancel", "reschedule", "confirm"},
	"walking":    {"walk", "walking", "leash", "park", "route", "exercise", "run", "stroll", "trail"},
	"care":       {"food", "feed", "feeding", "water", "treat", "treats", "medicine", "medication", "vet", "groom", "nap", "rest"},
	"behavior":   {"behavior", "behaviour", "bark", "barking", "bite", "pull", "pulling", "friendly", "aggressive", "anxious", "calm", "energetic", "obedient"},
	"payment":    {"pay", "payment", "paid", "price", "cost", "fee", "rate", "tip", "invoice", "refund"},
	"emergency":  {"emergency", "urgent", "asap", "immediately", "hurt", "injured", "injury", "lost", "bleeding", "blood", "accident", "help"},
}

var positiveWords = []string{
	"great", "good", "awesome", "amazing", "wonderful", "perfect", "love", "loved",
	"happy", "thanks", "thank", "appreciate", "excellent", "fantastic", "best", "reliable",
}

var negativeWords = []string{
	"bad", "terrible", "awful", "horrible", "late", "rude", "worst", "disappointed",
	"disappointing", "problem", "issue", "complaint", "unhappy", "never", "cancel",
}

var urgentWords = topicKeywords["emergency"]

// buildChunks partitions a time-ordered message sequence into bounded
// segments. A new chunk starts when the current one holds ChunkMaxMessages
// messages, or when the gap to the previous message exceeds ChunkGap
// (strictly greater: a gap of exactly the threshold does not split).
func buildChunks(messages []models.MessageModel, reviewerID, targetID string, opts Options) []ConversationChunk {
	if len(messages) == 0 {
		return []ConversationChunk{}
	}

	var chunks []ConversationChunk
	var current []models.MessageModel

	for i, msg := range messages {
		if len(current) > 0 {
			gap := msg.CreatedAt.Sub(messages[i-1].CreatedAt)
			if len(current) >= opts.ChunkMaxMessages || gap > opts.ChunkGap {
				chunks = append(chunks, finalizeChunk(current, reviewerID, targetID, opts))
				current = nil
			}
		}
		current = append(current, msg)
	}
	if len(current) > 0 {
		chunks = append(chunks, finalizeChunk(current, reviewerID, targetID, opts))
	}
	return chunks
}

func finalizeChunk(msgs []models.MessageModel, reviewerID, targetID string, opts Options) ConversationChunk {
	chunk := ConversationChunk{
		StartTime:    msgs[0].CreatedAt,
		EndTime:      msgs[len(msgs)-1].CreatedAt,
		MessageCount: len(msgs),
		Topics:       []string{},
	}

	var textParts []string
	var targetTexts []string
	for _, m := range msgs {
		if m.SenderID == reviewerID {
			chunk.ReviewerMessageCount++
		} else {
			chunk.TargetMessageCount++
			if m.Type == models.MessageText {
				targetTexts = append(targetTexts, m.Content)
			}
		}
		if m.Type == models.MessageText {
			chunk.TotalWordCount += countWords(m.Content)
			textParts = append(textParts, m.Content)
		}
	}
	if chunk.MessageCount > 0 {
		chunk.ResponseRatio = float64(chunk.TargetMessageCount) / float64(chunk.MessageCount)
	}

	fullText := strings.ToLower(strings.Join(textParts, " "))
	chunk.Topics = matchTopics(fullText)
	chunk.Sentiment = judgeSentiment(strings.ToLower(strings.Join(targetTexts, " ")))
	chunk.UrgencyLevel = judgeUrgency(textParts, fullText)
	chunk.RenderedText = renderTranscript(msgs, reviewerID, opts)
	return chunk
}

// renderTranscript renders a chunk as a timestamped, role-labeled transcript.
// Sender switches slower than SlowReply are annotated explicitly so the model
// can weigh responsiveness.
func renderTranscript(msgs []models.MessageModel, reviewerID string, opts Options) string {
	var b strings.Builder
	for i, m := range msgs {
		role := "TARGET"
		if m.SenderID == reviewerID {
			role = "REVIEWER"
		}
		b.WriteString("[")
		b.WriteString(m.CreatedAt.Format("Jan 2 15:04"))
		b.WriteString("] ")
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(renderContent(m))

		if i > 0 && m.SenderID != msgs[i-1].SenderID {
			delta := m.CreatedAt.Sub(msgs[i-1].CreatedAt)
			if delta > opts.SlowReply {
				fmt.Fprintf(&b, " (replied after %dm)", int(delta.Minutes()))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderContent(m models.MessageModel) string {
	switch m.Type {
	case models.MessageText:
		return m.Content
	case models.MessageImage:
		return "[sent a photo]"
	case models.MessageVideo:
		return "[sent a video]"
	case models.MessageLocation:
		return "[shared a location]"
	case models.MessageContact:
		return "[shared a contact]"
	default:
		return "[sent an attachment]"
	}
}

func matchTopics(lowerText string) []string {
	topics := []string{}
	// Stable order across runs.
	for _, category := range []string{"scheduling", "walking", "care", "behavior", "payment", "emergency"} {
		for _, kw := range topicKeywords[category] {
			if strings.Contains(lowerText, kw) {
				topics = append(topics, category)
				break
			}
		}
	}
	return topics
}

// judgeSentiment compares positive vs negative keyword counts over the target
// party's own messages. Ties default to neutral.
func judgeSentiment(lowerTargetText string) Sentiment {
	if lowerTargetText == "" {
		return SentimentNeutral
	}
	pos := countOccurrences(lowerTargetText, positiveWords)
	neg := countOccurrences(lowerTargetText, negativeWords)
	switch {
	case pos > neg:
		return SentimentPositive
	case neg > pos:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// judgeUrgency flags chunks containing urgent keywords as high, and shouty
// chunks (repeated exclamations or all-caps words) as medium.
func judgeUrgency(textParts []string, lowerText string) Urgency {
	for _, kw := range urgentWords {
		if strings.Contains(lowerText, kw) {
			return UrgencyHigh
		}
	}

	exclamations := strings.Count(lowerText, "!")
	shouted := 0
	for _, part := range textParts {
		for _, word := range strings.Fields(part) {
			if len(word) >= 3 && word == strings.ToUpper(word) && strings.IndexFunc(word, unicode.IsLetter) >= 0 {
				shouted++
			}
		}
	}
	if exclamations > 2 || shouted > 1 {
		return UrgencyMedium
	}
	return UrgencyLow
}

func countOccurrences(text string, words []string) int {
	n := 0
	for _, w := range words {
		n += strings.Count(text, w)
	}
	return n
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
