package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type User struct {
	ID           bson.ObjectID   `bson:"_id,omitempty" json:"_id"`
	UserName     string          `bson:"userName" json:"userName"`
	Email        string          `bson:"email" json:"email"`
	FullName     string          `bson:"fullName" json:"fullName"`
	Avatar       string          `bson:"avatar" json:"avatar"`
	CoverImage   string          `bson:"coverImage" json:"coverImage"`
	WatchHistory []bson.ObjectID `bson:"watchHistory" json:"watchHistory"`
	PasswordHash string          `bson:"passwordHash" json:"-"` // never expose
	RefreshToken string          `bson:"refreshToken,omitempty" json:"-"`
	CreatedAt    time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// SafeUser is the outward-facing projection of a User. It has no field for
// the password hash or the refresh token.
type SafeUser struct {
	ID           bson.ObjectID   `json:"_id"`
	UserName     string          `json:"userName"`
	Email        string          `json:"email"`
	FullName     string          `json:"fullName"`
	Avatar       string          `json:"avatar"`
	CoverImage   string          `json:"coverImage"`
	WatchHistory []bson.ObjectID `json:"watchHistory"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (u *User) Safe() SafeUser {
	history := u.WatchHistory
	if history == nil {
		history = []bson.ObjectID{}
	}
	return SafeUser{
		ID:           u.ID,
		UserName:     u.UserName,
		Email:        u.Email,
		FullName:     u.FullName,
		Avatar:       u.Avatar,
		CoverImage:   u.CoverImage,
		WatchHistory: history,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// UserUpdate: nil fields are left untouched
type UserUpdate struct {
	FullName   *string
	Email      *string
	Avatar     *string
	CoverImage *string
}

func (u UserUpdate) IsEmpty() bool {
	return u.FullName == nil && u.Email == nil && u.Avatar == nil && u.CoverImage == nil
}
