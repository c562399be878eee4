package auth

import "time"

// User is an authenticated identity. Users are created on their first successful login.
type User struct {
	ID          string     `json:"id" gorm:"column:id;primaryKey;size:36"`
	Email       string     `json:"email" gorm:"column:email;uniqueIndex;not null"`
	CreatedAt   time.Time  `json:"created_at" gorm:"column:created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty" gorm:"column:last_login_at"`
}

func (User) TableName() string { return "users" }

// AllowedEmail is one invitation. Note doubles as the member's display name.
type AllowedEmail struct {
	Email  string  `gorm:"column:email;primaryKey"`
	UserID *string `gorm:"column:user_id;size:36;index"`
	Note   string  `gorm:"column:note"`
}

func (AllowedEmail) TableName() string { return "allowed_signup_emails" }

// LoginCode is the pending one-time code of an email address.
type LoginCode struct {
	Email      string
	CodeHash   string
	Attempts   int
	LastSentAt time.Time
	ExpiresAt  time.Time
	UsedAt     *time.Time
}

// Identity is what the calendar needs to know about the signed-in user.
type Identity struct {
	UserID      string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}
