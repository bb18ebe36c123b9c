package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/iliyamo/art-gallery/internal/logutil"
	"github.com/iliyamo/art-gallery/internal/media"
	"github.com/iliyamo/art-gallery/internal/model"
	"github.com/iliyamo/art-gallery/internal/queue"
	"github.com/iliyamo/art-gallery/internal/repository"
	"github.com/iliyamo/art-gallery/internal/utils"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// TokenIssuer signs and verifies access tokens.
type TokenIssuer interface {
	Issue(c utils.Claims) (string, error)
	Verify(raw string) (utils.Claims, error)
}

// RegisterInput is a registration request.  Avatar is optional.
type RegisterInput struct {
	Username    string
	Password    string
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Address     string
	Avatar      *media.Upload
}

// AuthService runs registration, login and token resolution.
type AuthService struct {
	accounts repository.AccountStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	media    media.Uploader
	events   queue.Publisher

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(accounts repository.AccountStore, hasher PasswordHasher, tokens TokenIssuer,
	uploader media.Uploader, events queue.Publisher) *AuthService {
	if uploader == nil {
		uploader = media.Disabled{}
	}
	if events == nil {
		events = queue.Noop{}
	}
	return &AuthService{accounts: accounts, hasher: hasher, tokens: tokens, media: uploader, events: events}
}

// Register creates an account.  The email and username pre-checks only
// short-circuit the common case; the store's unique indexes decide races.
// A failed avatar upload is logged and the account is created without one.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.Account, error) {
	log := logutil.GetOrDefault(ctx)

	in.Username = strings.TrimSpace(in.Username)
	in.Email = repository.NormalizeEmail(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, errors.Wrap(ErrInvalidInput, "username, email and password are required")
	}

	for _, probe := range []struct {
		field repository.Field
		value string
	}{
		{repository.FieldEmail, in.Email},
		{repository.FieldUsername, in.Username},
	} {
		_, err := s.accounts.FindByField(ctx, probe.field, probe.value)
		switch {
		case err == nil:
			return nil, ErrDuplicateAccount
		case !errors.Is(err, repository.ErrNotFound):
			return nil, errors.Wrapf(err, "check %s uniqueness", probe.field)
		}
	}

	acct := &model.Account{
		Username:    in.Username,
		Email:       in.Email,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: in.PhoneNumber,
		Address:     in.Address,
	}
	if in.Avatar != nil {
		url, err := s.media.Upload(ctx, *in.Avatar)
		if err != nil {
			log.Warn().Err(err).Str("username", in.Username).Msg("avatar upload failed; registering without avatar")
		} else {
			acct.Avatar = url
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return nil, err
		}
		return nil, errors.Wrap(err, "hash password")
	}
	acct.PasswordHash = hash

	created, err := s.accounts.Insert(ctx, acct)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrDuplicateAccount
	}
	if err != nil {
		return nil, errors.Wrap(err, "insert account")
	}

	ev := queue.AccountRegisteredEvent{
		AccountID:    created.ID,
		Username:     created.Username,
		Email:        created.Email,
		HasAvatar:    created.Avatar != "",
		RegisteredAt: created.CreatedAt,
	}
	if ev.RegisteredAt.IsZero() {
		ev.RegisteredAt = time.Now().UTC()
	}
	if err := s.events.Publish(ctx, queue.AccountRegisteredQueue, ev); err != nil {
		log.Warn().Err(err).Str("account_id", created.ID).Msg("publish account.registered failed")
	}

	log.Info().Str("account_id", created.ID).Str("username", created.Username).Msg("account registered")
	return created, nil
}

// dummy returns a digest that never matches user input.  Comparing against
// it for unknown usernames keeps the bcrypt cost on every login path.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("dummy-password-for-unknown-users")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

// Login verifies the credentials and returns a signed token whose subject is
// the account id.  Unknown usernames and wrong passwords are reported
// identically as ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	acct, err := s.accounts.FindByField(ctx, repository.FieldUsername, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		s.hasher.Verify(s.dummy(), password)
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", errors.Wrap(err, "find account for login")
	}
	if !s.hasher.Verify(acct.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(utils.Claims{Subject: acct.ID})
	if err != nil {
		return "", errors.Wrap(err, "issue token")
	}
	return token, nil
}

// Authenticate resolves a bearer token to its account.  Bad tokens and
// subjects that no longer exist both yield utils.ErrTokenInvalid; store
// failures are returned as is.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*model.Account, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	acct, err := s.accounts.FindByID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, utils.ErrTokenInvalid
	}
	if err != nil {
		return nil, errors.Wrap(err, "resolve token subject")
	}
	return acct, nil
}

// UpdateProfile applies patch to the caller's own account.  An optional
// avatar upload replaces the stored one.  A failed upload is fatal only when
// the patch is otherwise empty.
func (s *AuthService) UpdateProfile(ctx context.Context, accountID string, patch model.AccountPatch, avatar *media.Upload) (*model.Account, error) {
	if avatar != nil {
		url, err := s.media.Upload(ctx, *avatar)
		if err != nil {
			if patch.Empty() {
				return nil, errors.Wrap(err, "upload avatar")
			}
			logutil.GetOrDefault(ctx).Warn().Err(err).Str("account_id", accountID).Msg("avatar upload failed; updating other fields")
		} else {
			patch.Avatar = &url
		}
	}
	if patch.Empty() {
		return nil, repository.ErrEmptyPatch
	}

	acct, err := s.accounts.UpdateFields(ctx, accountID, patch)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return nil, ErrDuplicateAccount
	case errors.Is(err, repository.ErrNotFound):
		return nil, repository.ErrNotFound
	case err != nil:
		return nil, errors.Wrap(err, "update account")
	}
	return acct, nil
}
