package models

// User roles in the marketplace.
const (
	RoleOwner  = "owner"
	RoleWalker = "walker"
)

// UserModel is a marketplace account (dog owner or walker).
type UserModel struct {
	Base
	DisplayName string `json:"display_name" gorm:"not null"`
	Role        string `json:"role"         gorm:"index;default:'owner'"` // owner | walker
	AvatarURL   string `json:"avatar_url"`
	Bio         string `json:"bio"          gorm:"type:text"`
}

func (UserModel) TableName() string { return "users" }
