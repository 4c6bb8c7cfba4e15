package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Video documents are written by the playback side; this service only reads them.
type Video struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	VideoFile   string        `bson:"videoFile" json:"videoFile"`
	Thumbnail   string        `bson:"thumbnail" json:"thumbnail"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description" json:"description"`
	Duration    float64       `bson:"duration" json:"duration"`
	Views       int64         `bson:"views" json:"views"`
	IsPublished bool          `bson:"isPublished" json:"isPublished"`
	Owner       bson.ObjectID `bson:"owner" json:"owner"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updatedAt"`
}

type VideoOwner struct {
	ID       bson.ObjectID `bson:"_id" json:"_id"`
	FullName string        `bson:"fullName" json:"fullName"`
	UserName string        `bson:"userName" json:"userName"`
	Avatar   string        `bson:"avatar" json:"avatar"`
}

// WatchedVideo is a watch-history entry with its owner resolved.
type WatchedVideo struct {
	ID          bson.ObjectID `bson:"_id" json:"_id"`
	VideoFile   string        `bson:"videoFile" json:"videoFile"`
	Thumbnail   string        `bson:"thumbnail" json:"thumbnail"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description" json:"description"`
	Duration    float64       `bson:"duration" json:"duration"`
	Views       int64         `bson:"views" json:"views"`
	Owner       *VideoOwner   `bson:"owner,omitempty" json:"owner"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
}
