package review

import (
	"context"

	"go.uber.org/zap"
)

const (
	fastPathMaxTokens = 400
	fullPathMaxTokens = 900

	defaultRating  = 3.0
	defaultComment = "I had a conversation with this user through the app. The experience was okay overall."
)

// SuggestionRequest identifies the review being drafted.
type SuggestionRequest struct {
	ReviewerID     string
	TargetID       string
	Reviewer       Profile
	Target         Profile
	ConversationID string
}

// GenerateReviewSuggestion produces an AI-drafted review for the given pair.
// It never fails: any error along the way, including a panic in the pipeline,
// degrades to a neutral default suggestion.
func (s *Service) GenerateReviewSuggestion(ctx context.Context, req SuggestionRequest) (sug *Suggestion) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("suggestion pipeline panicked", zap.Any("panic", r))
			sug = s.defaultSuggestion()
		}
	}()

	// Fast path: a background-built context summary lets us skip the full
	// fetch-chunk-analyze pass.
	if req.ConversationID != "" && s.cache != nil {
		key := ContextKey{ConversationID: req.ConversationID, ReviewerID: req.ReviewerID, TargetID: req.TargetID}
		if cctx, ok := s.cache.Get(key); ok && cctx.MessageCount > 0 {
			return s.suggestFromContext(ctx, cctx, req)
		}
	}
	return s.suggestFromAnalysis(ctx, req)
}

func (s *Service) suggestFromContext(ctx context.Context, cctx *ConversationContext, req SuggestionRequest) *Suggestion {
	prompt := buildFastSuggestionPrompt(cctx, req.Reviewer, req.Target)
	raw, err := s.client.CompleteText(ctx, prompt, fastPathMaxTokens)
	if err != nil {
		s.logger.Warn("fast-path completion failed", zap.Error(err))
		return s.defaultSuggestion()
	}
	sug := s.parseSuggestion(raw, nil)
	sug.ImageDescriptions = append([]string(nil), cctx.ImageDescriptions...)
	return sug
}

func (s *Service) suggestFromAnalysis(ctx context.Context, req SuggestionRequest) *Suggestion {
	analysis := s.analyzeConversation(ctx, req.ReviewerID, req.TargetID)
	report := s.renderReport(analysis)
	prompt := buildSuggestionPrompt(report, req.Reviewer, req.Target)

	raw, err := s.client.CompleteText(ctx, prompt, fullPathMaxTokens)
	if err != nil {
		s.logger.Warn("suggestion completion failed", zap.Error(err))
		sug := s.defaultSuggestion()
		sug.ConversationHighlights = analysis.KeyInsights
		return sug
	}

	sug := s.parseSuggestion(raw, analysis.KeyInsights)
	sug.ImageDescriptions = imageDescriptions(analysis.ImageAnalyses)
	sug.DetailedImageAnalyses = analysis.ImageAnalyses
	return sug
}

// parseSuggestion decodes the model output with per-field fallbacks: a bad or
// missing field degrades alone, never the whole suggestion.
func (s *Service) parseSuggestion(raw string, fallbackHighlights []string) *Suggestion {
	sug := s.defaultSuggestion()
	sug.ConversationHighlights = append([]string{}, fallbackHighlights...)

	obj, ok := extractJSON(raw)
	if !ok {
		s.logger.Warn("suggestion response was not valid JSON")
		return sug
	}

	if rating, ok := asFloat(obj["rating"]); ok {
		sug.SuggestedRating = snapRating(rating)
	}
	if comment := asString(obj["comment"]); comment != "" {
		sug.SuggestedComment = truncateRunes(comment, s.opts.CommentMaxRunes)
	}
	if highlights := asStringSlice(obj["highlights"]); len(highlights) > 0 {
		sug.ConversationHighlights = highlights
	}
	sug.AnalysisReasoning = asString(obj["reasoning"])
	return sug
}

func (s *Service) defaultSuggestion() *Suggestion {
	return &Suggestion{
		SuggestedRating:        defaultRating,
		SuggestedComment:       defaultComment,
		ConversationHighlights: []string{},
		ImageDescriptions:      []string{},
	}
}

func imageDescriptions(analyses []ImageAnalysis) []string {
	out := []string{}
	for _, img := range analyses {
		if img.Description != "" && img.Description != failedImagePlacehold {
			out = append(out, img.Description)
		}
	}
	return out
}
