package services

import (
	"context"
	"errors"
	"mime/multipart"
	"sync"

	"github.com/tejaspatil7903/backend/database"
	"github.com/tejaspatil7903/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// memUsers is an in-memory UserStore with the same not-found/duplicate
// contract as database.UserStore.
type memUsers struct {
	mu     sync.Mutex
	byID   map[bson.ObjectID]*models.User
	writes int

	findErr error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[bson.ObjectID]*models.User{}}
}

func (m *memUsers) copyOf(u *models.User) *models.User {
	c := *u
	return &c
}

func (m *memUsers) FindByIdentifier(_ context.Context, userName, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.byID {
		if (userName != "" && u.UserName == userName) || (email != "" && u.Email == email) {
			return m.copyOf(u), nil
		}
	}
	return nil, database.ErrNoDocument
}

func (m *memUsers) FindByID(_ context.Context, id bson.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, database.ErrNoDocument
	}
	return m.copyOf(u), nil
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.UserName == u.UserName || existing.Email == u.Email {
			return database.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	m.writes++
	m.byID[u.ID] = m.copyOf(u)
	return nil
}

func (m *memUsers) SetRefreshToken(_ context.Context, id bson.ObjectID, token string) error {
	return m.mutate(id, func(u *models.User) { u.RefreshToken = token })
}

func (m *memUsers) SwapRefreshToken(_ context.Context, id bson.ObjectID, old, next string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok || u.RefreshToken != old {
		return false, nil
	}
	m.writes++
	u.RefreshToken = next
	return true, nil
}

func (m *memUsers) ClearRefreshToken(_ context.Context, id bson.ObjectID) error {
	return m.mutate(id, func(u *models.User) { u.RefreshToken = "" })
}

func (m *memUsers) UpdatePassword(_ context.Context, id bson.ObjectID, hash string, revokeSession bool) error {
	return m.mutate(id, func(u *models.User) {
		u.PasswordHash = hash
		if revokeSession {
			u.RefreshToken = ""
		}
	})
}

func (m *memUsers) UpdateProfile(_ context.Context, id bson.ObjectID, upd models.UserUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, database.ErrNoDocument
	}
	if upd.Email != nil {
		for otherID, other := range m.byID {
			if otherID != id && other.Email == *upd.Email {
				return nil, database.ErrDuplicate
			}
		}
		u.Email = *upd.Email
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.Avatar != nil {
		u.Avatar = *upd.Avatar
	}
	if upd.CoverImage != nil {
		u.CoverImage = *upd.CoverImage
	}
	m.writes++
	return m.copyOf(u), nil
}

func (m *memUsers) mutate(id bson.ObjectID, fn func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return database.ErrNoDocument
	}
	m.writes++
	fn(u)
	return nil
}

func (m *memUsers) get(id bson.ObjectID) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.byID[id]
}

func (m *memUsers) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

type fakeUploader struct {
	mu      sync.Mutex
	folders []string
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, folder string, fh *multipart.FileHeader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.folders = append(f.folders, folder)
	return "https://cdn.example.com/" + folder + "/" + fh.Filename, nil
}

var errStoreDown = errors.New("store unreachable")

type recordingChannelCache struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (r *recordingChannelCache) InvalidateChannel(_ context.Context, userName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, userName)
	return r.err
}
