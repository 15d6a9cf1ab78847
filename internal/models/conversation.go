package models

import "time"

// Conversation kinds.
const (
	ConversationDirect = "direct"
	ConversationGroup  = "group"
)

// ConversationModel is a chat thread between marketplace users.
type ConversationModel struct {
	Base
	Kind          string     `json:"kind"            gorm:"index;default:'direct'"` // direct | group
	Title         string     `json:"title"`
	LastMessageAt *time.Time `json:"last_message_at" gorm:"index"`
}

func (ConversationModel) TableName() string { return "conversations" }

// ConversationMemberModel links users to conversations.
type ConversationMemberModel struct {
	ConversationID string    `json:"conversation_id" gorm:"type:char(36);primaryKey"`
	UserID         string    `json:"user_id"         gorm:"type:char(36);primaryKey;index"`
	JoinedAt       time.Time `json:"joined_at"`
}

func (ConversationMemberModel) TableName() string { return "conversation_members" }
