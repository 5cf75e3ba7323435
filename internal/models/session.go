package models

import (
	"time"
)

// Session backs the refresh-token exchange. Only the SHA-256 of the refresh
// token is stored; TokenID is the jti of the most recent access token issued
// for the session so logout can find and revoke it.
type Session struct {
	ID               string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	UserID           string    `gorm:"size:36;not null;index" bson:"userId" json:"userId"`
	TokenID          string    `gorm:"size:36;index" bson:"tokenId" json:"-"`
	RefreshTokenHash string    `gorm:"uniqueIndex;not null;size:64" bson:"refreshTokenHash" json:"-"`
	UserAgent        string    `gorm:"size:512" bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	IPAddress        string    `gorm:"size:64" bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	ExpiresAt        time.Time `gorm:"not null" bson:"expiresAt" json:"expiresAt"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
