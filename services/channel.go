package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tejaspatil7903/backend/cache"
	"github.com/tejaspatil7903/backend/database"
	"github.com/tejaspatil7903/backend/models"
	"github.com/tejaspatil7903/backend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

// ChannelStore runs the subscription and watch-history aggregations.
type ChannelStore interface {
	ChannelProfile(ctx context.Context, userName string, viewer bson.ObjectID) (*models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID bson.ObjectID) ([]models.WatchedVideo, error)
	ToggleSubscription(ctx context.Context, subscriber, channel bson.ObjectID) (bool, error)
}

type ChannelService struct {
	channels ChannelStore
	users    UserStore
	cache    *cache.Cache
	cacheTTL time.Duration
	log      *zap.Logger
}

// NewChannelService accepts a nil cache, in which case every profile read
// goes to the database.
func NewChannelService(channels ChannelStore, users UserStore, c *cache.Cache, cacheTTL time.Duration, log *zap.Logger) *ChannelService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChannelService{channels: channels, users: users, cache: c, cacheTTL: cacheTTL, log: log}
}

func profileKey(userName string, viewer bson.ObjectID) string {
	return fmt.Sprintf("channel:%s:%s", userName, viewer.Hex())
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

// channelKeyPattern matches the cached profile of userName for every viewer.
func channelKeyPattern(userName string) string {
	return "channel:" + globEscaper.Replace(userName) + ":*"
}

// InvalidateChannel drops every cached view of the channel owned by userName.
func (s *ChannelService) InvalidateChannel(ctx context.Context, userName string) error {
	return s.cache.InvalidateMatch(ctx, channelKeyPattern(utils.NormalizeUserName(userName)))
}

func (s *ChannelService) ChannelProfile(ctx context.Context, userName, viewerID string) (*models.ChannelProfile, error) {
	userName = utils.NormalizeUserName(userName)
	if userName == "" {
		return nil, utils.InvalidInput("Username is missing")
	}
	viewer, err := bson.ObjectIDFromHex(viewerID)
	if err != nil {
		return nil, utils.Unauthorized("Unauthorized request")
	}

	profile, err := cache.GetOrLoadJSON(s.cache, ctx, profileKey(userName, viewer), s.cacheTTL,
		func(ctx context.Context) (*models.ChannelProfile, error) {
			return s.channels.ChannelProfile(ctx, userName, viewer)
		})
	if errors.Is(err, database.ErrNoDocument) {
		return nil, utils.NotFound("Channel does not exist")
	}
	if err != nil {
		return nil, utils.Internal("Something went wrong while fetching channel", err)
	}
	return profile, nil
}

func (s *ChannelService) WatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error) {
	id, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, utils.Unauthorized("Unauthorized request")
	}
	history, err := s.channels.WatchHistory(ctx, id)
	if errors.Is(err, database.ErrNoDocument) {
		return nil, utils.NotFound("User does not exist")
	}
	if err != nil {
		return nil, utils.Internal("Something went wrong while fetching watch history", err)
	}
	return history, nil
}

func (s *ChannelService) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	subscriber, err := bson.ObjectIDFromHex(subscriberID)
	if err != nil {
		return false, utils.Unauthorized("Unauthorized request")
	}
	channel, err := bson.ObjectIDFromHex(channelID)
	if err != nil {
		return false, utils.InvalidInput("Invalid channel id")
	}
	if subscriber == channel {
		return false, utils.InvalidInput("Cannot subscribe to your own channel")
	}

	owner, err := s.users.FindByID(ctx, channel)
	if errors.Is(err, database.ErrNoDocument) {
		return false, utils.NotFound("Channel does not exist")
	}
	if err != nil {
		return false, utils.Internal("Something went wrong while updating subscription", err)
	}

	subscribed, err := s.channels.ToggleSubscription(ctx, subscriber, channel)
	if err != nil {
		return false, utils.Internal("Something went wrong while updating subscription", err)
	}
	if err := s.InvalidateChannel(ctx, owner.UserName); err != nil {
		s.log.Warn("channel cache invalidation failed", zap.String("channel", owner.UserName), zap.Error(err))
	}
	return subscribed, nil
}
