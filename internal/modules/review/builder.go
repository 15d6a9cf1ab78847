package review

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pawlink/core/internal/models"
	"github.com/pawlink/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
)

const (
	taskTypeContextBuild = "review:context"
	summaryMaxRunes      = 4000
	buildChannelSize     = 64
)

type buildRequest struct {
	key    ContextKey
	taskID string
}

// contextBuilder incrementally maintains conversation contexts in the cache.
// A single worker drains the channel; an in-flight set prevents two builds
// from analyzing the same image concurrently.
type contextBuilder struct {
	svc *Service
	ch  chan buildRequest

	mu             sync.Mutex
	inflightImages map[string]struct{}
}

func newContextBuilder(s *Service) *contextBuilder {
	return &contextBuilder{
		svc:            s,
		ch:             make(chan buildRequest, buildChannelSize),
		inflightImages: make(map[string]struct{}),
	}
}

// Run drains build requests until ctx is cancelled.
func (b *contextBuilder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-b.ch:
			b.execute(ctx, req)
		}
	}
}

// enqueue hands a request to the worker without ever blocking the caller.
// A full channel drops the request; the task record stays pending and the
// next message notification retries it.
func (b *contextBuilder) enqueue(req buildRequest) bool {
	select {
	case b.ch <- req:
		return true
	default:
		return false
	}
}

// tryAcquireImage atomically claims an image ID for analysis. Returns false
// when another build already holds it.
func (b *contextBuilder) tryAcquireImage(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, held := b.inflightImages[id]; held {
		return false
	}
	b.inflightImages[id] = struct{}{}
	return true
}

func (b *contextBuilder) releaseImage(id string) {
	b.mu.Lock()
	delete(b.inflightImages, id)
	b.mu.Unlock()
}

func (b *contextBuilder) execute(ctx context.Context, req buildRequest) {
	svc := b.svc
	if req.taskID != "" && svc.taskSvc != nil {
		_ = svc.taskSvc.UpdateStatus(ctx, req.taskID, taskqueue.TaskRunning, nil, "")
	}

	if err := b.build(ctx, req.key); err != nil {
		svc.logger.Warn("context build failed",
			zap.String("conversation_id", req.key.ConversationID), zap.Error(err))
		if req.taskID != "" && svc.taskSvc != nil {
			_ = svc.taskSvc.UpdateStatus(ctx, req.taskID, taskqueue.TaskFailed, nil, err.Error())
		}
		return
	}
	if req.taskID != "" && svc.taskSvc != nil {
		_ = svc.taskSvc.UpdateStatus(ctx, req.taskID, taskqueue.TaskCompleted, nil, "")
	}
}

// build fetches messages newer than the cached watermark and folds them into
// the conversation context.
func (b *contextBuilder) build(ctx context.Context, key ContextKey) error {
	svc := b.svc

	cctx, ok := svc.cache.Get(key)
	if !ok {
		cctx = &ConversationContext{
			Key:             key,
			ProcessedImages: make(map[string]struct{}),
		}
	}

	since := cctx.LastMessageAt
	if since.IsZero() {
		since = time.Now().Add(-svc.opts.LookbackWindows[len(svc.opts.LookbackWindows)-1])
	}

	messages, err := svc.store.FetchMessagesSince(ctx, key.ReviewerID, key.TargetID, since, svc.opts.MessageFetchLimit)
	if err != nil {
		return err
	}

	fresh := messages[:0:0]
	for _, m := range messages {
		if m.CreatedAt.After(cctx.LastMessageAt) {
			fresh = append(fresh, m)
		}
	}
	if len(fresh) == 0 {
		svc.cache.Put(cctx)
		return nil
	}

	b.appendSummary(cctx, fresh, key.ReviewerID)
	b.analyzeNewImages(ctx, cctx, fresh)

	cctx.MessageCount += len(fresh)
	cctx.LastMessageAt = fresh[len(fresh)-1].CreatedAt
	svc.cache.Put(cctx)
	return nil
}

func (b *contextBuilder) appendSummary(cctx *ConversationContext, fresh []models.MessageModel, reviewerID string) {
	var lines strings.Builder
	if cctx.Summary != "" {
		lines.WriteString(cctx.Summary)
		if !strings.HasSuffix(cctx.Summary, "\n") {
			lines.WriteString("\n")
		}
	}
	lines.WriteString(renderTranscript(fresh, reviewerID, b.svc.opts))

	summary := lines.String()
	// Keep the tail: recent messages matter more than the opening.
	if runes := []rune(summary); len(runes) > summaryMaxRunes {
		summary = string(runes[len(runes)-summaryMaxRunes:])
		if idx := strings.Index(summary, "\n"); idx >= 0 {
			summary = summary[idx+1:]
		}
	}
	cctx.Summary = summary
}

func (b *contextBuilder) analyzeNewImages(ctx context.Context, cctx *ConversationContext, fresh []models.MessageModel) {
	for _, m := range fresh {
		if m.Type != models.MessageImage || m.Content == "" {
			continue
		}
		if _, done := cctx.ProcessedImages[m.ID]; done {
			continue
		}
		if !b.tryAcquireImage(m.ID) {
			continue
		}

		analysis := b.svc.analyzeImage(ctx, m)
		b.releaseImage(m.ID)

		cctx.ProcessedImages[m.ID] = struct{}{}
		if analysis.Description != "" && analysis.Description != failedImagePlacehold {
			cctx.ImageDescriptions = append(cctx.ImageDescriptions, analysis.Description)
		}
	}
}

// NotifyMessage records that a conversation received new messages and
// schedules an incremental context build. Duplicate notifications for the same
// pair collapse onto the existing pending task.
func (s *Service) NotifyMessage(ctx context.Context, conversationID, reviewerID, targetID string) (*taskqueue.Task, error) {
	key := ContextKey{ConversationID: conversationID, ReviewerID: reviewerID, TargetID: targetID}

	var task *taskqueue.Task
	if s.taskSvc != nil {
		dedupKey := fmt.Sprintf("%s:%s:%s", key.ConversationID, key.ReviewerID, key.TargetID)
		var err error
		task, err = s.taskSvc.Enqueue(ctx, taskTypeContextBuild, map[string]string{
			"conversation_id": conversationID,
			"reviewer_id":     reviewerID,
			"target_id":       targetID,
		}, dedupKey, conversationID)
		if err != nil {
			s.logger.Warn("context build enqueue failed", zap.Error(err))
		}
	}

	req := buildRequest{key: key}
	if task != nil {
		req.taskID = task.ID
	}
	if !s.builder.enqueue(req) {
		s.logger.Warn("context builder queue full, dropping request",
			zap.String("conversation_id", conversationID))
	}
	return task, nil
}
