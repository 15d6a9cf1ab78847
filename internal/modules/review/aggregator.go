package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pawlink/core/internal/models"
	"go.uber.org/zap"
)

// analyzeConversation runs the full analysis pipeline for one reviewer/target
// pair. The lookback widens through the configured windows until one holds at
// least MinMessages; when even the widest falls short, whatever it holds is
// analyzed anyway so long-dormant pairs still get a best-effort report.
func (s *Service) analyzeConversation(ctx context.Context, reviewerID, targetID string) *ConversationAnalysis {
	now := time.Now()

	var messages []models.MessageModel
	var windowHours int
	for _, window := range s.opts.LookbackWindows {
		fetched, err := s.store.FetchMessagesSince(ctx, reviewerID, targetID, now.Add(-window), s.opts.MessageFetchLimit)
		if err != nil {
			s.logger.Warn("message fetch failed during analysis", zap.Error(err))
			fetched = nil
		}
		messages = fetched
		windowHours = int(window.Hours())
		if len(fetched) >= s.opts.MinMessages {
			break
		}
	}
	if len(messages) == 0 {
		return emptyAnalysis(now)
	}

	var imageMsgs []models.MessageModel
	stats := ConversationStats{
		TotalMessages:  len(messages),
		FirstMessageAt: messages[0].CreatedAt,
		LastMessageAt:  messages[len(messages)-1].CreatedAt,
		WindowHours:    windowHours,
	}
	for _, m := range messages {
		if m.SenderID == reviewerID {
			stats.ReviewerMessages++
		} else {
			stats.TargetMessages++
		}
		if m.Type == models.MessageImage {
			imageMsgs = append(imageMsgs, m)
		}
	}
	stats.ImageMessages = len(imageMsgs)

	analysis := &ConversationAnalysis{
		Chunks:        buildChunks(messages, reviewerID, targetID, s.opts),
		ImageAnalyses: s.analyzeImages(ctx, imageMsgs),
		Stats:         stats,
		Patterns:      analyzePatterns(messages, reviewerID),
		AnalyzedAt:    now,
	}
	analysis.KeyInsights = keyInsights(analysis)
	return analysis
}

// emptyAnalysis is the canonical zero-interaction report.
func emptyAnalysis(now time.Time) *ConversationAnalysis {
	return &ConversationAnalysis{
		Chunks:        []ConversationChunk{},
		ImageAnalyses: []ImageAnalysis{},
		KeyInsights:   []string{"No conversation history found between these users"},
		AnalyzedAt:    now,
	}
}

// keyInsights derives short human-readable observations from the aggregate
// numbers. These double as highlight fallbacks when the model returns none.
func keyInsights(a *ConversationAnalysis) []string {
	insights := []string{}

	if a.Stats.TargetMessages == 0 {
		insights = append(insights, "The person being reviewed never responded in this conversation")
	} else if a.Stats.TotalMessages > 0 {
		share := float64(a.Stats.TargetMessages) / float64(a.Stats.TotalMessages)
		if share < 0.3 {
			insights = append(insights, "Low engagement: the person being reviewed sent few of the messages")
		}
	}

	if a.Patterns.AverageResponseTimeMinutes > 0 {
		insights = append(insights, fmt.Sprintf("Typical response time was around %s minutes", formatMinutes(a.Patterns.AverageResponseTimeMinutes)))
	}

	qualityPhotos := 0
	relevantPhotos := 0
	for _, img := range a.ImageAnalyses {
		if img.QualityScore > 7 {
			qualityPhotos++
		}
		if img.RelevanceScore > 7 {
			relevantPhotos++
		}
	}
	if qualityPhotos > 0 {
		insights = append(insights, fmt.Sprintf("Shared %d high-quality photo updates", qualityPhotos))
	}
	if relevantPhotos > 0 && relevantPhotos != qualityPhotos {
		insights = append(insights, fmt.Sprintf("%d photos were clearly relevant to the service", relevantPhotos))
	}

	negativeChunks := 0
	urgentChunks := 0
	for _, c := range a.Chunks {
		if c.Sentiment == SentimentNegative {
			negativeChunks++
		}
		if c.UrgencyLevel == UrgencyHigh {
			urgentChunks++
		}
	}
	if urgentChunks > 0 {
		insights = append(insights, "The conversation included urgent or emergency moments")
	}
	if negativeChunks > len(a.Chunks)/2 && len(a.Chunks) > 0 {
		insights = append(insights, "The overall tone of the conversation leaned negative")
	}

	return insights
}

// renderReport turns an analysis into the prompt-ready text block consumed by
// the suggestion model.
func (s *Service) renderReport(a *ConversationAnalysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== CONVERSATION OVERVIEW (last %d hours) ===\n", a.Stats.WindowHours)
	fmt.Fprintf(&b, "Total messages: %d (reviewer: %d, reviewed: %d)\n",
		a.Stats.TotalMessages, a.Stats.ReviewerMessages, a.Stats.TargetMessages)
	if a.Stats.ImageMessages > 0 {
		fmt.Fprintf(&b, "Photos shared: %d\n", a.Stats.ImageMessages)
	}
	if !a.Stats.FirstMessageAt.IsZero() {
		fmt.Fprintf(&b, "Period: %s to %s\n",
			a.Stats.FirstMessageAt.Format("Jan 2 15:04"),
			a.Stats.LastMessageAt.Format("Jan 2 15:04"))
	}

	if a.Stats.TotalMessages > 1 {
		b.WriteString("\n=== COMMUNICATION PATTERNS ===\n")
		if a.Patterns.AverageResponseTimeMinutes > 0 {
			fmt.Fprintf(&b, "Average response time: %s minutes (longest gap: %s minutes)\n",
				formatMinutes(a.Patterns.AverageResponseTimeMinutes),
				formatMinutes(a.Patterns.LongestGapMinutes))
			fmt.Fprintf(&b, "Response consistency: %.2f of 1.00\n", a.Patterns.ResponseConsistency)
		}
		fmt.Fprintf(&b, "Reviewer sent %.0f%% of the messages\n", a.Patterns.InitiationRatio*100)
		fmt.Fprintf(&b, "Most active around %02d:00, averaging %.1f messages per hour\n",
			a.Patterns.MostActiveHour, a.Patterns.CommunicationFrequency)
	}

	if len(a.KeyInsights) > 0 {
		b.WriteString("\n=== KEY OBSERVATIONS ===\n")
		for _, insight := range a.KeyInsights {
			b.WriteString("- ")
			b.WriteString(insight)
			b.WriteString("\n")
		}
	}

	if len(a.ImageAnalyses) > 0 {
		b.WriteString("\n=== PHOTO ANALYSIS ===\n")
		for i, img := range a.ImageAnalyses {
			fmt.Fprintf(&b, "Photo %d (%s): %s\n", i+1, img.Timestamp.Format("Jan 2 15:04"), img.Description)
			if img.Observations != "" {
				fmt.Fprintf(&b, "  Notes: %s\n", img.Observations)
			}
			if img.QualityScore > 0 || img.RelevanceScore > 0 {
				fmt.Fprintf(&b, "  Quality %.0f/10, relevance %.0f/10\n", img.QualityScore, img.RelevanceScore)
			}
		}
	}

	if len(a.Chunks) > 0 {
		b.WriteString("\n=== CONVERSATION SEGMENTS ===\n")
		for i, c := range a.Chunks {
			fmt.Fprintf(&b, "--- Segment %d (%s, sentiment: %s, urgency: %s", i+1,
				c.StartTime.Format("Jan 2"), c.Sentiment, c.UrgencyLevel)
			if len(c.Topics) > 0 {
				fmt.Fprintf(&b, ", topics: %s", strings.Join(c.Topics, ", "))
			}
			b.WriteString(") ---\n")
			b.WriteString(c.RenderedText)
		}
	}

	return b.String()
}
