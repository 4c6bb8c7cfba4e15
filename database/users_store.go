package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tejaspatil7903/backend/models"
	"github.com/tejaspatil7903/backend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type UserStore struct {
	col *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{col: db.Collection(UsersCollection)}
}

// identifierFilter matches on whichever of userName/email is non-empty.
func identifierFilter(userName, email string) bson.M {
	or := bson.A{}
	if userName != "" {
		or = append(or, bson.M{"userName": userName})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	return bson.M{"$or": or}
}

func (s *UserStore) FindByIdentifier(ctx context.Context, userName, email string) (*models.User, error) {
	if userName == "" && email == "" {
		return nil, ErrNoDocument
	}
	return s.findOne(ctx, identifierFilter(userName, email))
}

func (s *UserStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	err := s.col.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	if u.WatchHistory == nil {
		u.WatchHistory = []bson.ObjectID{}
	}
	u.CreatedAt, u.UpdatedAt = now, now

	if _, err := s.col.InsertOne(ctx, u); err != nil {
		if utils.IsDuplicateKey(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// SetRefreshToken overwrites the stored token unconditionally.
func (s *UserStore) SetRefreshToken(ctx context.Context, id bson.ObjectID, token string) error {
	return s.updateByID(ctx, id, bson.M{
		"$set": bson.M{"refreshToken": token, "updatedAt": time.Now().UTC()},
	})
}

// SwapRefreshToken replaces old with next only if old is still the stored
// value. It reports false when another rotation or a logout got there first.
func (s *UserStore) SwapRefreshToken(ctx context.Context, id bson.ObjectID, old, next string) (bool, error) {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id, "refreshToken": old},
		bson.M{"$set": bson.M{"refreshToken": next, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("rotate refresh token: %w", err)
	}
	return res.MatchedCount == 1, nil
}

func (s *UserStore) ClearRefreshToken(ctx context.Context, id bson.ObjectID) error {
	return s.updateByID(ctx, id, bson.M{
		"$unset": bson.M{"refreshToken": ""},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	})
}

// UpdatePassword stores a new hash and, with revokeSession, clears the
// refresh token in the same update.
func (s *UserStore) UpdatePassword(ctx context.Context, id bson.ObjectID, hash string, revokeSession bool) error {
	return s.updateByID(ctx, id, passwordUpdate(hash, revokeSession, time.Now().UTC()))
}

func passwordUpdate(hash string, revokeSession bool, now time.Time) bson.M {
	update := bson.M{"$set": bson.M{"passwordHash": hash, "updatedAt": now}}
	if revokeSession {
		update["$unset"] = bson.M{"refreshToken": ""}
	}
	return update
}

func (s *UserStore) UpdateProfile(ctx context.Context, id bson.ObjectID, upd models.UserUpdate) (*models.User, error) {
	if upd.IsEmpty() {
		return s.FindByID(ctx, id)
	}
	set := profileSet(upd)
	set["updatedAt"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, ErrNoDocument
	case utils.IsDuplicateKey(err):
		return nil, ErrDuplicate
	case err != nil:
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &u, nil
}

func profileSet(upd models.UserUpdate) bson.M {
	set := bson.M{}
	if upd.FullName != nil {
		set["fullName"] = *upd.FullName
	}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.Avatar != nil {
		set["avatar"] = *upd.Avatar
	}
	if upd.CoverImage != nil {
		set["coverImage"] = *upd.CoverImage
	}
	return set
}

func (s *UserStore) updateByID(ctx context.Context, id bson.ObjectID, update bson.M) error {
	res, err := s.col.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNoDocument
	}
	return nil
}
