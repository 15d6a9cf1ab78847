package review

import (
	"context"
	"time"

	"github.com/pawlink/core/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MessageStore fetches the ordered message history between two users.
// Lookup failures are treated as "no prior interaction": implementations
// return an empty list rather than surfacing store errors to the pipeline.
type MessageStore interface {
	FetchMessagesSince(ctx context.Context, userA, userB string, since time.Time, limit int) ([]models.MessageModel, error)
}

type gormMessageStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewMessageStore returns the gorm-backed MessageStore.
func NewMessageStore(db *gorm.DB) MessageStore {
	return &gormMessageStore{db: db, logger: zap.NewNop()}
}

// NewMessageStoreWithLogger returns the gorm-backed MessageStore with logging.
func NewMessageStoreWithLogger(db *gorm.DB, logger *zap.Logger) MessageStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gormMessageStore{db: db, logger: logger.Named("MessageStore")}
}

// FetchMessagesSince resolves the direct conversation between the two users
// first; when none exists it merges messages across every conversation shared
// by both. Ordering is created_at ASC with id as the consistent tie-break.
func (s *gormMessageStore) FetchMessagesSince(ctx context.Context, userA, userB string, since time.Time, limit int) ([]models.MessageModel, error) {
	if userA == "" || userB == "" || limit <= 0 {
		return []models.MessageModel{}, nil
	}

	if id, ok := s.directConversationID(ctx, userA, userB); ok {
		return s.messagesIn(ctx, []string{id}, userA, userB, since, limit), nil
	}

	ids := s.sharedConversationIDs(ctx, userA, userB)
	if len(ids) == 0 {
		return []models.MessageModel{}, nil
	}
	return s.messagesIn(ctx, ids, userA, userB, since, limit), nil
}

func (s *gormMessageStore) directConversationID(ctx context.Context, userA, userB string) (string, bool) {
	var ids []string
	err := s.db.WithContext(ctx).
		Table("conversations").
		Joins("JOIN conversation_members ma ON ma.conversation_id = conversations.id AND ma.user_id = ?", userA).
		Joins("JOIN conversation_members mb ON mb.conversation_id = conversations.id AND mb.user_id = ?", userB).
		Where("conversations.kind = ?", models.ConversationDirect).
		Where("conversations.deleted_at IS NULL").
		Limit(1).
		Pluck("conversations.id", &ids).Error
	if err != nil {
		s.logger.Warn("direct conversation lookup failed", zap.Error(err))
		return "", false
	}
	if len(ids) == 0 {
		return "", false
	}
	return ids[0], true
}

func (s *gormMessageStore) sharedConversationIDs(ctx context.Context, userA, userB string) []string {
	var ids []string
	err := s.db.WithContext(ctx).
		Table("conversation_members ma").
		Joins("JOIN conversation_members mb ON mb.conversation_id = ma.conversation_id AND mb.user_id = ?", userB).
		Where("ma.user_id = ?", userA).
		Pluck("ma.conversation_id", &ids).Error
	if err != nil {
		s.logger.Warn("shared conversation lookup failed", zap.Error(err))
		return nil
	}
	return ids
}

// messagesIn returns the pair's messages across the given conversations.
// Messages from other group members are excluded here so downstream chunk
// counts always add up to reviewer + target.
func (s *gormMessageStore) messagesIn(ctx context.Context, conversationIDs []string, userA, userB string, since time.Time, limit int) []models.MessageModel {
	var msgs []models.MessageModel
	err := s.db.WithContext(ctx).
		Where("conversation_id IN ?", conversationIDs).
		Where("sender_id IN ?", []string{userA, userB}).
		Where("created_at >= ?", since).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		s.logger.Warn("message fetch failed", zap.Error(err))
		return []models.MessageModel{}
	}
	return msgs
}
