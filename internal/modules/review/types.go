package review

import "time"

// Sentiment of a conversation chunk, judged from the target party's messages.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Urgency of a conversation chunk.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Profile is the minimal user info needed for prompt personalization.
type Profile struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"` // owner | walker
}

// ConversationChunk is a bounded, time-contiguous slice of a message history
// prepared for language-model consumption. Derived, never persisted.
type ConversationChunk struct {
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	MessageCount         int       `json:"message_count"`
	ReviewerMessageCount int       `json:"reviewer_message_count"`
	TargetMessageCount   int       `json:"target_message_count"`
	TotalWordCount       int       `json:"total_word_count"`
	ResponseRatio        float64   `json:"response_ratio"` // target share of chunk messages
	Topics               []string  `json:"topics"`
	RenderedText         string    `json:"rendered_text"`
	Sentiment            Sentiment `json:"sentiment"`
	UrgencyLevel         Urgency   `json:"urgency_level"`
}

// ImageAnalysis is the normalized result of one vision-completion call.
type ImageAnalysis struct {
	MessageID      string    `json:"message_id"`
	SenderID       string    `json:"sender_id"`
	Timestamp      time.Time `json:"timestamp"`
	ImageURL       string    `json:"image_url"`
	Description    string    `json:"description"`
	Observations   string    `json:"observations"`
	Tags           []string  `json:"tags"`
	QualityScore   float64   `json:"quality_score"`   // 0..10
	RelevanceScore float64   `json:"relevance_score"` // 0..10
}

// CommunicationPatterns are aggregate statistics over a message sequence.
type CommunicationPatterns struct {
	AverageResponseTimeMinutes float64 `json:"average_response_time_minutes"`
	ResponseConsistency        float64 `json:"response_consistency"` // 0..1, higher = steadier cadence
	InitiationRatio            float64 `json:"initiation_ratio"`     // reviewer share of messages
	MostActiveHour             int     `json:"most_active_hour"`     // 0..23
	CommunicationFrequency     float64 `json:"communication_frequency"` // messages per hour
	LongestGapMinutes          float64 `json:"longest_gap_minutes"`
}

// ConversationStats summarizes the analyzed message window.
type ConversationStats struct {
	TotalMessages    int       `json:"total_messages"`
	ReviewerMessages int       `json:"reviewer_messages"`
	TargetMessages   int       `json:"target_messages"`
	ImageMessages    int       `json:"image_messages"`
	FirstMessageAt   time.Time `json:"first_message_at"`
	LastMessageAt    time.Time `json:"last_message_at"`
	WindowHours      int       `json:"window_hours"` // lookback window that satisfied the threshold
}

// ConversationAnalysis is the aggregate report produced per analysis run.
type ConversationAnalysis struct {
	Chunks        []ConversationChunk   `json:"chunks"`
	ImageAnalyses []ImageAnalysis       `json:"image_analyses"`
	Stats         ConversationStats     `json:"stats"`
	Patterns      CommunicationPatterns `json:"patterns"`
	KeyInsights   []string              `json:"key_insights"`
	AnalyzedAt    time.Time             `json:"analyzed_at"`
}

// Suggestion is the final output handed back to the caller. Immutable value
// object; always well-formed, even when the pipeline degraded along the way.
type Suggestion struct {
	SuggestedRating        float64         `json:"suggested_rating"` // 1..5, 0.1 steps
	SuggestedComment       string          `json:"suggested_comment"`
	ConversationHighlights []string        `json:"conversation_highlights"`
	ImageDescriptions      []string        `json:"image_descriptions"`
	AnalysisReasoning      string          `json:"analysis_reasoning"`
	DetailedImageAnalyses  []ImageAnalysis `json:"detailed_image_analyses,omitempty"`
}
