package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tejaspatil7903/backend/models"
	"github.com/tejaspatil7903/backend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type ChannelStore struct {
	users         *mongo.Collection
	subscriptions *mongo.Collection
}

func NewChannelStore(db *mongo.Database) *ChannelStore {
	return &ChannelStore{
		users:         db.Collection(UsersCollection),
		subscriptions: db.Collection(SubscriptionsCollection),
	}
}

func channelProfilePipeline(userName string, viewer bson.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userName": userName}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         SubscriptionsCollection,
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         SubscriptionsCollection,
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscribedTo",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"subscribersCount":          bson.M{"$size": "$subscribers"},
			"channelsSubscribedToCount": bson.M{"$size": "$subscribedTo"},
			"isSubscribed": bson.M{"$cond": bson.M{
				"if":   bson.M{"$in": bson.A{viewer, "$subscribers.subscriber"}},
				"then": true,
				"else": false,
			}},
		}}},
		{{Key: "$project", Value: bson.M{
			"fullName":                  1,
			"userName":                  1,
			"email":                     1,
			"avatar":                    1,
			"coverImage":                1,
			"subscribersCount":          1,
			"channelsSubscribedToCount": 1,
			"isSubscribed":              1,
		}}},
	}
}

// watchHistoryPipeline resolves watchHistory ids to videos with their owner.
// $lookup returns matches in collection order without repeats, so the result
// is rebuilt by mapping over the stored ids; ids with no video are dropped.
func watchHistoryPipeline(userID bson.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         VideosCollection,
			"localField":   "watchHistory",
			"foreignField": "_id",
			"as":           "videos",
			"pipeline": bson.A{
				bson.M{"$lookup": bson.M{
					"from":         UsersCollection,
					"localField":   "owner",
					"foreignField": "_id",
					"as":           "owner",
					"pipeline": bson.A{
						bson.M{"$project": bson.M{"fullName": 1, "userName": 1, "avatar": 1}},
					},
				}},
				bson.M{"$addFields": bson.M{"owner": bson.M{"$first": "$owner"}}},
			},
		}}},
		{{Key: "$project", Value: bson.M{"watchHistory": bson.M{
			"$filter": bson.M{
				"input": bson.M{"$map": bson.M{
					"input": bson.M{"$ifNull": bson.A{"$watchHistory", bson.A{}}},
					"as":    "id",
					"in": bson.M{"$first": bson.M{"$filter": bson.M{
						"input": "$videos",
						"as":    "v",
						"cond":  bson.M{"$eq": bson.A{"$$v._id", "$$id"}},
					}}},
				}},
				"as":   "v",
				"cond": bson.M{"$eq": bson.A{bson.M{"$type": "$$v"}, "object"}},
			},
		}}}},
	}
}

func (s *ChannelStore) ChannelProfile(ctx context.Context, userName string, viewer bson.ObjectID) (*models.ChannelProfile, error) {
	cursor, err := s.users.Aggregate(ctx, channelProfilePipeline(userName, viewer))
	if err != nil {
		return nil, fmt.Errorf("channel aggregate: %w", err)
	}
	var out []models.ChannelProfile
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("channel decode: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNoDocument
	}
	return &out[0], nil
}

func (s *ChannelStore) WatchHistory(ctx context.Context, userID bson.ObjectID) ([]models.WatchedVideo, error) {
	cursor, err := s.users.Aggregate(ctx, watchHistoryPipeline(userID))
	if err != nil {
		return nil, fmt.Errorf("history aggregate: %w", err)
	}
	var out []struct {
		WatchHistory []models.WatchedVideo `bson:"watchHistory"`
	}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("history decode: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNoDocument
	}
	if out[0].WatchHistory == nil {
		return []models.WatchedVideo{}, nil
	}
	return out[0].WatchHistory, nil
}

// ToggleSubscription removes an existing subscription or creates one, and
// reports whether the subscriber is subscribed afterwards.
func (s *ChannelStore) ToggleSubscription(ctx context.Context, subscriber, channel bson.ObjectID) (bool, error) {
	filter := bson.M{"subscriber": subscriber, "channel": channel}
	res, err := s.subscriptions.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("unsubscribe: %w", err)
	}
	if res.DeletedCount == 1 {
		return false, nil
	}

	now := time.Now().UTC()
	_, err = s.subscriptions.InsertOne(ctx, models.Subscription{
		ID:         bson.NewObjectID(),
		Subscriber: subscriber,
		Channel:    channel,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if utils.IsDuplicateKey(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}
	return true, nil
}
