package user

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	Status string `json:"status" db:"status"`
	Bio    string `json:"bio" db:"bio"`
}

type Avatar struct {
	PublicDomain string `json:"public_domain" db:"public_domain"`
	PublicPath   string `json:"public_path" db:"public_path"`
}

// DeviceToken is a registered push target for one of the user's devices.
type DeviceToken struct {
	Token    string    `json:"token"`
	Platform string    `json:"platform"`
	AddedAt  time.Time `json:"added_at"`
	LastUsed time.Time `json:"last_used"`
}

type User struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	Name          string        `json:"name" db:"name"`
	Username      string        `json:"username" db:"username"`
	Email         string        `json:"email" db:"email"`
	PasswordHash  string        `json:"-" db:"password_hash"`
	EmailVerified bool          `json:"-" db:"email_verified"`
	Profile       Profile       `json:"profile" db:"profile"`
	Avatar        Avatar        `json:"avatar" db:"avatar"`
	DeviceTokens  []DeviceToken `json:"-" db:"device_tokens"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// Public is the projection of a user that is safe to embed in feed output
// and realtime payloads. Password and verification internals never leave
// the users table through this type.
type Public struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Profile  Profile   `json:"profile"`
	Avatar   Avatar    `json:"avatar"`
}

func (u *User) Public() *Public {
	if u == nil {
		return nil
	}
	return &Public{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Email:    u.Email,
		Profile:  u.Profile,
		Avatar:   u.Avatar,
	}
}
