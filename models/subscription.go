package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Subscription struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Subscriber bson.ObjectID `bson:"subscriber" json:"subscriber"` // one who is subscribing
	Channel    bson.ObjectID `bson:"channel" json:"channel"`       // user being subscribed to
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// ChannelProfile is the result of the channel aggregation for one user.
type ChannelProfile struct {
	ID                        bson.ObjectID `bson:"_id" json:"_id"`
	FullName                  string        `bson:"fullName" json:"fullName"`
	UserName                  string        `bson:"userName" json:"userName"`
	Email                     string        `bson:"email" json:"email"`
	Avatar                    string        `bson:"avatar" json:"avatar"`
	CoverImage                string        `bson:"coverImage" json:"coverImage"`
	SubscribersCount          int64         `bson:"subscribersCount" json:"subscribersCount"`
	ChannelsSubscribedToCount int64         `bson:"channelsSubscribedToCount" json:"channelsSubscribedToCount"`
	IsSubscribed              bool          `bson:"isSubscribed" json:"isSubscribed"`
}
