package review

import (
	"context"

	"github.com/pawlink/core/internal/models"
	"go.uber.org/zap"
)

const (
	visionMaxTokens      = 300
	failedImagePlacehold = "Image could not be analyzed"
)

// analyzeImages runs the vision model over the sampled image messages. The
// sample keeps the most recent ImageSampleLimit images in chronological order.
// Every sampled image yields exactly one result: a failed call degrades to a
// placeholder instead of aborting the batch.
func (s *Service) analyzeImages(ctx context.Context, imageMsgs []models.MessageModel) []ImageAnalysis {
	if len(imageMsgs) == 0 {
		return []ImageAnalysis{}
	}
	if limit := s.opts.ImageSampleLimit; len(imageMsgs) > limit {
		imageMsgs = imageMsgs[len(imageMsgs)-limit:]
	}

	results := make([]ImageAnalysis, 0, len(imageMsgs))
	for _, msg := range imageMsgs {
		results = append(results, s.analyzeImage(ctx, msg))
	}
	return results
}

// analyzeImage analyzes a single image message, never returning an error.
func (s *Service) analyzeImage(ctx context.Context, msg models.MessageModel) ImageAnalysis {
	result := ImageAnalysis{
		MessageID:   msg.ID,
		SenderID:    msg.SenderID,
		Timestamp:   msg.CreatedAt,
		ImageURL:    msg.Content,
		Description: failedImagePlacehold,
		Tags:        []string{},
	}
	if msg.Content == "" || s.client == nil {
		return result
	}

	raw, err := s.client.CompleteVision(ctx, visionInstruction, msg.Content, visionMaxTokens)
	if err != nil {
		s.logger.Warn("vision analysis failed", zap.String("message_id", msg.ID), zap.Error(err))
		return result
	}
	obj, ok := extractJSON(raw)
	if !ok {
		s.logger.Warn("vision response was not valid JSON", zap.String("message_id", msg.ID))
		return result
	}

	if desc := asString(obj["description"]); desc != "" {
		result.Description = desc
	}
	result.Observations = asString(obj["observations"])
	if tags := asStringSlice(obj["tags"]); tags != nil {
		result.Tags = tags
	}
	if q, ok := asFloat(obj["quality_score"]); ok {
		result.QualityScore = clamp(q, 0, 10)
	}
	if r, ok := asFloat(obj["relevance_score"]); ok {
		result.RelevanceScore = clamp(r, 0, 10)
	}
	return result
}
