package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an applicant account. The same struct is persisted by every
// storage backend, hence the parallel gorm and bson tags.
type User struct {
	ID            string     `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	FirstName     string     `gorm:"size:50;not null" bson:"firstName" json:"firstName"`
	LastName      string     `gorm:"size:50;not null" bson:"lastName" json:"lastName"`
	Email         string     `gorm:"size:255;not null;uniqueIndex" bson:"email" json:"email"`
	Password      string     `gorm:"not null" bson:"password" json:"-"`
	Phone         string     `gorm:"size:20" bson:"phone,omitempty" json:"phone,omitempty"`
	DateOfBirth   *time.Time `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	Role          string     `gorm:"size:20;default:'user'" bson:"role" json:"role"`
	IsVerified    bool       `gorm:"default:false" bson:"isVerified" json:"isVerified"`
	LoginAttempts int        `gorm:"default:0" bson:"loginAttempts" json:"-"`
	LockUntil     *time.Time `bson:"lockUntil,omitempty" json:"-"`
	LastLogin     *time.Time `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt     time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time  `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Locked reports whether the persisted lock is still in effect at now.
func (u *User) Locked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}
