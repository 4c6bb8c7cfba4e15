package controllers

import (
	"context"
	"mime/multipart"
	"sync"

	"github.com/tejaspatil7903/backend/database"
	"github.com/tejaspatil7903/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type userTable struct {
	mu   sync.Mutex
	rows map[bson.ObjectID]models.User
}

func newUserTable() *userTable {
	return &userTable{rows: map[bson.ObjectID]models.User{}}
}

func (t *userTable) FindByIdentifier(_ context.Context, userName, email string) (*models.User, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, u := range t.rows {
		if (userName != "" && u.UserName == userName) || (email != "" && u.Email == email) {
			return &u, nil
		}
	}
	return nil, database.ErrNoDocument
}

func (t *userTable) FindByID(_ context.Context, id bson.ObjectID) (*models.User, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.rows[id]
	if !ok {
		return nil, database.ErrNoDocument
	}
	return &u, nil
}

func (t *userTable) Create(_ context.Context, u *models.User) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, other := range t.rows {
		if other.UserName == u.UserName || other.Email == u.Email {
			return database.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	t.rows[u.ID] = *u
	return nil
}

func (t *userTable) SetRefreshToken(_ context.Context, id bson.ObjectID, token string) error {
	return t.update(id, func(u *models.User) { u.RefreshToken = token })
}

func (t *userTable) SwapRefreshToken(_ context.Context, id bson.ObjectID, old, next string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.rows[id]
	if !ok || u.RefreshToken != old {
		return false, nil
	}
	u.RefreshToken = next
	t.rows[id] = u
	return true, nil
}

func (t *userTable) ClearRefreshToken(_ context.Context, id bson.ObjectID) error {
	return t.update(id, func(u *models.User) { u.RefreshToken = "" })
}

func (t *userTable) UpdatePassword(_ context.Context, id bson.ObjectID, hash string, revokeSession bool) error {
	return t.update(id, func(u *models.User) {
		u.PasswordHash = hash
		if revokeSession {
			u.RefreshToken = ""
		}
	})
}

func (t *userTable) UpdateProfile(_ context.Context, id bson.ObjectID, upd models.UserUpdate) (*models.User, error) {
	var out models.User
	err := t.update(id, func(u *models.User) {
		if upd.FullName != nil {
			u.FullName = *upd.FullName
		}
		if upd.Email != nil {
			u.Email = *upd.Email
		}
		if upd.Avatar != nil {
			u.Avatar = *upd.Avatar
		}
		if upd.CoverImage != nil {
			u.CoverImage = *upd.CoverImage
		}
		out = *u
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *userTable) update(id bson.ObjectID, fn func(*models.User)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.rows[id]
	if !ok {
		return database.ErrNoDocument
	}
	fn(&u)
	t.rows[id] = u
	return nil
}

type noChannels struct{}

func (noChannels) ChannelProfile(context.Context, string, bson.ObjectID) (*models.ChannelProfile, error) {
	return nil, database.ErrNoDocument
}

func (noChannels) WatchHistory(context.Context, bson.ObjectID) ([]models.WatchedVideo, error) {
	return []models.WatchedVideo{}, nil
}

func (noChannels) ToggleSubscription(context.Context, bson.ObjectID, bson.ObjectID) (bool, error) {
	return true, nil
}

type echoUploader struct{}

func (echoUploader) Upload(_ context.Context, folder string, fh *multipart.FileHeader) (string, error) {
	return "https://cdn.example.com/" + folder + "/" + fh.Filename, nil
}
