package review

import (
	"math"
	"testing"
	"time"

	"github.com/pawlink/core/internal/models"
)

func TestAnalyzePatternsEmpty(t *testing.T) {
	p := analyzePatterns(nil, "r")
	if p.AverageResponseTimeMinutes != 0 || p.InitiationRatio != 0 || p.CommunicationFrequency != 0 {
		t.Errorf("expected zero patterns, got %+v", p)
	}
}

func TestAnalyzePatternsSingleSender(t *testing.T) {
	base := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	msgs := []models.MessageModel{
		textAt(base, "r", "hello"),
		textAt(base.Add(5*time.Minute), "r", "anyone there"),
		textAt(base.Add(10*time.Minute), "r", "hello?"),
	}

	p := analyzePatterns(msgs, "r")
	if p.InitiationRatio != 1 {
		t.Errorf("expected initiation ratio 1, got %f", p.InitiationRatio)
	}
	// No sender switches means no response-time stats.
	if p.AverageResponseTimeMinutes != 0 || p.ResponseConsistency != 0 {
		t.Errorf("expected zero response stats, got avg=%f consistency=%f",
			p.AverageResponseTimeMinutes, p.ResponseConsistency)
	}
	if p.MostActiveHour != 14 {
		t.Errorf("expected most active hour 14, got %d", p.MostActiveHour)
	}
}

func TestAnalyzePatternsResponseTimes(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	// Switches: r→t after 10m, t→r after 20m, r→t after 30m.
	msgs := []models.MessageModel{
		textAt(base, "r", "hi"),
		textAt(base.Add(10*time.Minute), "t", "hey"),
		textAt(base.Add(30*time.Minute), "r", "how did it go"),
		textAt(base.Add(60*time.Minute), "t", "great walk"),
	}

	p := analyzePatterns(msgs, "r")
	if math.Abs(p.AverageResponseTimeMinutes-20) > 1e-9 {
		t.Errorf("expected average 20m, got %f", p.AverageResponseTimeMinutes)
	}
	if p.LongestGapMinutes != 30 {
		t.Errorf("expected longest gap 30m, got %f", p.LongestGapMinutes)
	}
	if p.InitiationRatio != 0.5 {
		t.Errorf("expected initiation ratio 0.5, got %f", p.InitiationRatio)
	}

	// stddev of {10,20,30} ≈ 8.165; consistency = 1 - 8.165/21.
	wantConsistency := 1 - math.Sqrt(200.0/3)/21
	if math.Abs(p.ResponseConsistency-wantConsistency) > 1e-9 {
		t.Errorf("expected consistency %f, got %f", wantConsistency, p.ResponseConsistency)
	}
	if p.ResponseConsistency < 0 || p.ResponseConsistency > 1 {
		t.Errorf("consistency out of range: %f", p.ResponseConsistency)
	}
}

func TestAnalyzePatternsSteadyCadenceScoresHigher(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	steady := []models.MessageModel{
		textAt(base, "r", "a"),
		textAt(base.Add(10*time.Minute), "t", "b"),
		textAt(base.Add(20*time.Minute), "r", "c"),
		textAt(base.Add(30*time.Minute), "t", "d"),
	}
	erratic := []models.MessageModel{
		textAt(base, "r", "a"),
		textAt(base.Add(1*time.Minute), "t", "b"),
		textAt(base.Add(3*time.Hour), "r", "c"),
		textAt(base.Add(3*time.Hour+2*time.Minute), "t", "d"),
	}

	ps := analyzePatterns(steady, "r")
	pe := analyzePatterns(erratic, "r")
	if ps.ResponseConsistency <= pe.ResponseConsistency {
		t.Errorf("steady cadence (%f) should outscore erratic (%f)",
			ps.ResponseConsistency, pe.ResponseConsistency)
	}
}

func TestModeHourTieBreaksEarliest(t *testing.T) {
	counts := map[int]int{22: 3, 8: 3, 15: 2}
	if got := modeHour(counts); got != 8 {
		t.Errorf("expected earliest tied hour 8, got %d", got)
	}
}
