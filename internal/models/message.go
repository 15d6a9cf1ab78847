package models

// Message content types. Images carry the storage URL in Content.
const (
	MessageText     = "text"
	MessageImage    = "image"
	MessageVideo    = "video"
	MessageLocation = "location"
	MessageContact  = "contact"
	MessageOther    = "other"
)

// MessageModel is a single chat message. Messages are immutable once created;
// CreatedAt (from Base) is the ordering key.
type MessageModel struct {
	Base
	ConversationID string `json:"conversation_id" gorm:"type:char(36);index;not null"`
	SenderID       string `json:"sender_id"       gorm:"type:char(36);index;not null"`
	Type           string `json:"type"            gorm:"default:'text'"`
	Content        string `json:"content"         gorm:"type:text"`
}

func (MessageModel) TableName() string { return "messages" }
