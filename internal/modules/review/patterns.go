package review

import (
	"math"

	"github.com/pawlink/core/internal/models"
)

// analyzePatterns computes aggregate communication statistics over a
// time-ordered message sequence. All metrics are zero on empty or
// single-message input.
func analyzePatterns(messages []models.MessageModel, reviewerID string) CommunicationPatterns {
	p := CommunicationPatterns{}
	if len(messages) == 0 {
		return p
	}

	hourCounts := make(map[int]int)
	reviewerCount := 0
	var responseMinutes []float64

	for i, msg := range messages {
		hourCounts[msg.CreatedAt.Hour()]++
		if msg.SenderID == reviewerID {
			reviewerCount++
		}

		// Response time: adjacent messages where the sender switched.
		if i > 0 && msg.SenderID != messages[i-1].SenderID {
			delta := msg.CreatedAt.Sub(messages[i-1].CreatedAt).Minutes()
			responseMinutes = append(responseMinutes, delta)
		}
	}

	p.InitiationRatio = float64(reviewerCount) / float64(len(messages))
	p.MostActiveHour = modeHour(hourCounts)

	elapsedHours := messages[len(messages)-1].CreatedAt.Sub(messages[0].CreatedAt).Hours()
	p.CommunicationFrequency = float64(len(messages)) / (elapsedHours + 1)

	if len(responseMinutes) == 0 {
		return p
	}

	mean := 0.0
	longest := 0.0
	for _, m := range responseMinutes {
		mean += m
		if m > longest {
			longest = m
		}
	}
	mean /= float64(len(responseMinutes))
	p.AverageResponseTimeMinutes = mean
	p.LongestGapMinutes = longest

	variance := 0.0
	for _, m := range responseMinutes {
		variance += (m - mean) * (m - mean)
	}
	variance /= float64(len(responseMinutes))
	stddev := math.Sqrt(variance)

	// Higher = steadier reply cadence.
	p.ResponseConsistency = 1 - clamp(stddev/(mean+1), 0, 1)
	return p
}

// modeHour returns the hour-of-day with the most messages; ties break toward
// the earliest hour so the result is deterministic.
func modeHour(counts map[int]int) int {
	best, bestCount := 0, 0
	for hour := 0; hour < 24; hour++ {
		if counts[hour] > bestCount {
			best, bestCount = hour, counts[hour]
		}
	}
	return best
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
