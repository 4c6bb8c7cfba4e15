package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"mime/multipart"
	"net/mail"
	"time"

	"github.com/tejaspatil7903/backend/database"
	"github.com/tejaspatil7903/backend/models"
	"github.com/tejaspatil7903/backend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

// UserStore is the credential store. Lookups return database.ErrNoDocument
// when nothing matches, and writes return database.ErrDuplicate on a unique
// index violation.
type UserStore interface {
	FindByIdentifier(ctx context.Context, userName, email string) (*models.User, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	SetRefreshToken(ctx context.Context, id bson.ObjectID, token string) error
	SwapRefreshToken(ctx context.Context, id bson.ObjectID, old, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, id bson.ObjectID) error
	UpdatePassword(ctx context.Context, id bson.ObjectID, hash string, revokeSession bool) error
	UpdateProfile(ctx context.Context, id bson.ObjectID, upd models.UserUpdate) (*models.User, error)
}

type RegisterRequest struct {
	FullName   string
	Email      string
	UserName   string
	Password   string
	Avatar     *multipart.FileHeader
	CoverImage *multipart.FileHeader
}

type LoginRequest struct {
	UserName string
	Email    string
	Password string
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type LoginResult struct {
	User models.SafeUser `json:"user"`
	TokenPair
}

// ChannelCache drops cached channel profiles after a profile write.
type ChannelCache interface {
	InvalidateChannel(ctx context.Context, userName string) error
}

type AccountOptions struct {
	// RevokeSessionsOnPasswordChange clears the stored refresh token after a
	// successful password change. Off by default.
	RevokeSessionsOnPasswordChange bool
	// WriteTimeout bounds session writes, which run detached from the
	// request context.
	WriteTimeout time.Duration
	// ChannelCache, when set, is told about fullName, email, avatar and
	// cover image changes.
	ChannelCache ChannelCache
}

type AccountService struct {
	users    UserStore
	hasher   *utils.PasswordHasher
	tokens   *utils.TokenIssuer
	uploader utils.Uploader
	log      *zap.Logger
	opts     AccountOptions
}

func NewAccountService(
	users UserStore,
	hasher *utils.PasswordHasher,
	tokens *utils.TokenIssuer,
	uploader utils.Uploader,
	log *zap.Logger,
	opts AccountOptions,
) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	return &AccountService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		uploader: uploader,
		log:      log,
		opts:     opts,
	}
}

// writeCtx keeps request values but not cancellation, so a client that
// disconnects mid-rotation cannot leave the refresh token half written.
func (s *AccountService) writeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.opts.WriteTimeout)
}

func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*models.SafeUser, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"fullName", req.FullName},
		{"email", req.Email},
		{"userName", req.UserName},
		{"password", req.Password},
	} {
		if utils.IsBlank(f.value) {
			missing = append(missing, f.name+" is required")
		}
	}
	if len(missing) > 0 {
		return nil, utils.InvalidInput("All fields are required", missing...)
	}
	if len(req.Password) > utils.MaxPasswordBytes {
		return nil, utils.InvalidInput("Password is too long", fmt.Sprintf("password must be at most %d bytes", utils.MaxPasswordBytes))
	}

	email := utils.NormalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, utils.InvalidInput("Invalid email address")
	}
	userName := utils.NormalizeUserName(req.UserName)
	if req.Avatar == nil {
		return nil, utils.InvalidInput("Avatar file is required")
	}

	existing, err := s.users.FindByIdentifier(ctx, userName, email)
	switch {
	case err == nil && existing != nil:
		return nil, utils.Conflict("User with email or username already exists")
	case err != nil && !errors.Is(err, database.ErrNoDocument):
		return nil, utils.Internal("Something went wrong while registering user", err)
	}

	// everything that can reject the request runs before the uploads
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, s.hashError(err)
	}

	id := bson.NewObjectID()
	folder := mediaFolder(userName, id)
	avatarURL, err := s.uploader.Upload(ctx, folder+"/avatar", req.Avatar)
	if err != nil {
		s.log.Warn("avatar upload failed", zap.String("userName", userName), zap.Error(err))
		return nil, utils.InvalidInput("Failed to upload avatar")
	}
	var coverURL string
	if req.CoverImage != nil {
		coverURL, err = s.uploader.Upload(ctx, folder+"/cover", req.CoverImage)
		if err != nil {
			s.log.Warn("cover image upload failed", zap.String("userName", userName), zap.Error(err))
			return nil, utils.InvalidInput("Failed to upload cover image")
		}
	}

	user := &models.User{
		ID:           id,
		UserName:     userName,
		Email:        email,
		FullName:     req.FullName,
		Avatar:       avatarURL,
		CoverImage:   coverURL,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, utils.Conflict("User with email or username already exists")
		}
		return nil, utils.Internal("Something went wrong while registering user", err)
	}

	s.log.Info("user registered", zap.String("userId", user.ID.Hex()), zap.String("userName", userName))
	safe := user.Safe()
	return &safe, nil
}

func (s *AccountService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	userName := utils.NormalizeUserName(req.UserName)
	email := utils.NormalizeEmail(req.Email)
	if userName == "" && email == "" {
		return nil, utils.InvalidInput("Username or email is required")
	}
	if req.Password == "" {
		return nil, utils.InvalidInput("Password is required")
	}

	user, err := s.users.FindByIdentifier(ctx, userName, email)
	if errors.Is(err, database.ErrNoDocument) {
		loginAttempts.WithLabelValues("not_found").Inc()
		return nil, utils.NotFound("User does not exist")
	}
	if err != nil {
		return nil, utils.Internal("Something went wrong while logging in", err)
	}

	ok, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return nil, utils.Internal("Something went wrong while logging in", err)
	}
	if !ok {
		loginAttempts.WithLabelValues("invalid_credentials").Inc()
		return nil, utils.InvalidCredentials("Invalid user credentials")
	}

	pair, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	loginAttempts.WithLabelValues("success").Inc()
	s.log.Info("user logged in", zap.String("userId", user.ID.Hex()))
	return &LoginResult{User: user.Safe(), TokenPair: *pair}, nil
}

// issueSession mints a token pair and overwrites the stored refresh token,
// which ends any previous session for the user.
func (s *AccountService) issueSession(ctx context.Context, user *models.User) (*TokenPair, error) {
	pair, err := s.mint(user)
	if err != nil {
		return nil, err
	}

	wctx, cancel := s.writeCtx(ctx)
	defer cancel()
	if err := s.users.SetRefreshToken(wctx, user.ID, pair.RefreshToken); err != nil {
		return nil, utils.Internal("Something went wrong while generating refresh and access token", err)
	}
	user.RefreshToken = pair.RefreshToken
	return pair, nil
}

func (s *AccountService) mint(user *models.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, utils.Internal("Something went wrong while generating refresh and access token", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, utils.Internal("Something went wrong while generating refresh and access token", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AccountService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, utils.Unauthorized("Unauthorized request")
	}

	claims, err := s.tokens.VerifyRefreshToken(presented)
	if err != nil {
		refreshAttempts.WithLabelValues("invalid").Inc()
		return nil, utils.InvalidToken("Invalid refresh token")
	}
	id, err := bson.ObjectIDFromHex(claims.Subject)
	if err != nil {
		refreshAttempts.WithLabelValues("invalid").Inc()
		return nil, utils.InvalidToken("Invalid refresh token")
	}

	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, database.ErrNoDocument) {
		refreshAttempts.WithLabelValues("invalid").Inc()
		return nil, utils.InvalidToken("Invalid refresh token")
	}
	if err != nil {
		return nil, utils.Internal("Something went wrong while refreshing the session", err)
	}

	if subtle.ConstantTimeCompare([]byte(presented), []byte(user.RefreshToken)) != 1 {
		refreshAttempts.WithLabelValues("reused").Inc()
		s.log.Warn("refresh token reuse rejected", zap.String("userId", id.Hex()))
		return nil, utils.TokenReused("Refresh token is expired or used")
	}

	pair, err := s.mint(user)
	if err != nil {
		return nil, err
	}

	wctx, cancel := s.writeCtx(ctx)
	defer cancel()
	swapped, err := s.users.SwapRefreshToken(wctx, id, presented, pair.RefreshToken)
	if err != nil {
		return nil, utils.Internal("Something went wrong while refreshing the session", err)
	}
	if !swapped {
		// a concurrent refresh or logout consumed the token after we read it
		refreshAttempts.WithLabelValues("reused").Inc()
		return nil, utils.TokenReused("Refresh token is expired or used")
	}

	refreshAttempts.WithLabelValues("success").Inc()
	return pair, nil
}

func (s *AccountService) Logout(ctx context.Context, userID string) error {
	id, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return utils.Unauthorized("Unauthorized request")
	}

	wctx, cancel := s.writeCtx(ctx)
	defer cancel()
	err = s.users.ClearRefreshToken(wctx, id)
	if errors.Is(err, database.ErrNoDocument) {
		return utils.NotFound("User does not exist")
	}
	if err != nil {
		return utils.Internal("Something went wrong while logging out", err)
	}
	s.log.Info("user logged out", zap.String("userId", userID))
	return nil
}

// ChangePassword leaves existing sessions alive unless
// RevokeSessionsOnPasswordChange is set.
func (s *AccountService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || utils.IsBlank(newPassword) {
		return utils.InvalidInput("Old and new password are required")
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(oldPassword, user.PasswordHash)
	if err != nil {
		return utils.Internal("Something went wrong while changing password", err)
	}
	if !ok {
		return utils.InvalidCredentials("Invalid old password")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return s.hashError(err)
	}

	wctx, cancel := s.writeCtx(ctx)
	defer cancel()
	if err := s.users.UpdatePassword(wctx, user.ID, hash, s.opts.RevokeSessionsOnPasswordChange); err != nil {
		return utils.Internal("Something went wrong while changing password", err)
	}

	s.log.Info("password changed",
		zap.String("userId", userID),
		zap.Bool("sessionsRevoked", s.opts.RevokeSessionsOnPasswordChange),
	)
	return nil
}

func (s *AccountService) CurrentUser(ctx context.Context, userID string) (*models.SafeUser, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	safe := user.Safe()
	return &safe, nil
}

func (s *AccountService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*models.SafeUser, error) {
	if utils.IsBlank(fullName) || utils.IsBlank(email) {
		return nil, utils.InvalidInput("All fields are required")
	}
	email = utils.NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, utils.InvalidInput("Invalid email address")
	}
	return s.updateProfile(ctx, userID, models.UserUpdate{FullName: &fullName, Email: &email})
}

func (s *AccountService) UpdateAvatar(ctx context.Context, userID string, file *multipart.FileHeader) (*models.SafeUser, error) {
	if file == nil {
		return nil, utils.InvalidInput("Avatar file is missing")
	}
	url, err := s.uploadFor(ctx, userID, "avatar", file)
	if err != nil {
		return nil, err
	}
	return s.updateProfile(ctx, userID, models.UserUpdate{Avatar: &url})
}

func (s *AccountService) UpdateCoverImage(ctx context.Context, userID string, file *multipart.FileHeader) (*models.SafeUser, error) {
	if file == nil {
		return nil, utils.InvalidInput("Cover image file is missing")
	}
	url, err := s.uploadFor(ctx, userID, "cover", file)
	if err != nil {
		return nil, err
	}
	return s.updateProfile(ctx, userID, models.UserUpdate{CoverImage: &url})
}

func (s *AccountService) uploadFor(ctx context.Context, userID, kind string, file *multipart.FileHeader) (string, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return "", err
	}
	url, err := s.uploader.Upload(ctx, mediaFolder(user.UserName, user.ID)+"/"+kind, file)
	if err != nil {
		s.log.Warn("upload failed", zap.String("userId", userID), zap.String("kind", kind), zap.Error(err))
		return "", utils.InvalidInput("Error while uploading " + kind)
	}
	return url, nil
}

// mediaFolder is "users/<slug>", or "users/<id>" when the user name has
// nothing to slug.
func mediaFolder(userName string, id bson.ObjectID) string {
	if slug := utils.GenerateSlug(userName); slug != "" {
		return "users/" + slug
	}
	return "users/" + id.Hex()
}

func (s *AccountService) updateProfile(ctx context.Context, userID string, upd models.UserUpdate) (*models.SafeUser, error) {
	id, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, utils.Unauthorized("Unauthorized request")
	}
	user, err := s.users.UpdateProfile(ctx, id, upd)
	switch {
	case errors.Is(err, database.ErrNoDocument):
		return nil, utils.NotFound("User does not exist")
	case errors.Is(err, database.ErrDuplicate):
		return nil, utils.Conflict("Email is already in use")
	case err != nil:
		return nil, utils.Internal("Something went wrong while updating account", err)
	}
	if s.opts.ChannelCache != nil {
		if err := s.opts.ChannelCache.InvalidateChannel(ctx, user.UserName); err != nil {
			s.log.Warn("channel cache invalidation failed", zap.String("userId", userID), zap.Error(err))
		}
	}
	safe := user.Safe()
	return &safe, nil
}

func (s *AccountService) loadUser(ctx context.Context, userID string) (*models.User, error) {
	id, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, utils.Unauthorized("Unauthorized request")
	}
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, database.ErrNoDocument) {
		return nil, utils.NotFound("User does not exist")
	}
	if err != nil {
		return nil, utils.Internal("Something went wrong while loading user", err)
	}
	return user, nil
}

func (s *AccountService) hashError(err error) error {
	if errors.Is(err, utils.ErrInvalidInput) {
		return err
	}
	return utils.Internal("Something went wrong while hashing password", err)
}
