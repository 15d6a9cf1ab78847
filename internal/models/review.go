package models

// ReviewModel is a review one user leaves about another after a walk.
// Highlights keeps the conversation evidence the reviewer chose to keep.
type ReviewModel struct {
	Base
	ReviewerID     string      `json:"reviewer_id"     gorm:"type:char(36);index;not null"`
	TargetID       string      `json:"target_id"       gorm:"type:char(36);index;not null"`
	ConversationID string      `json:"conversation_id" gorm:"type:char(36);index"`
	Rating         float64     `json:"rating"          gorm:"not null"`
	Comment        string      `json:"comment"         gorm:"type:text"`
	Highlights     StringSlice `json:"highlights"      gorm:"type:longtext"`
	AIAssisted     bool        `json:"ai_assisted"`
}

func (ReviewModel) TableName() string { return "reviews" }
