package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/art-gallery/internal/media"
	"github.com/iliyamo/art-gallery/internal/model"
	"github.com/iliyamo/art-gallery/internal/queue"
	"github.com/iliyamo/art-gallery/internal/repository"
	"github.com/iliyamo/art-gallery/internal/utils"
)

type authFixture struct {
	svc      *AuthService
	accounts *memAccounts
	hasher   *countingHasher
	tokens   *utils.TokenService
	uploader *mockUploader
	events   *mockPublisher
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	tokens, err := utils.NewTokenService("test-secret", 0)
	require.NoError(t, err)

	f := authFixture{
		accounts: newMemAccounts(),
		hasher:   &countingHasher{PasswordHasher: utils.NewBcryptHasher(bcrypt.MinCost)},
		tokens:   tokens,
		uploader: &mockUploader{},
		events:   &mockPublisher{},
	}
	f.svc = NewAuthService(f.accounts, f.hasher, f.tokens, f.uploader, f.events)
	f.events.On("Publish", mock.Anything, queue.AccountRegisteredQueue, mock.Anything).Return(nil).Maybe()
	t.Cleanup(func() {
		f.uploader.AssertExpectations(t)
		f.events.AssertExpectations(t)
	})
	return f
}

func alice() RegisterInput {
	return RegisterInput{
		Username:    "alice",
		Password:    "secret123",
		FirstName:   "Alice",
		LastName:    "Liddell",
		Email:       "a@x.com",
		PhoneNumber: "555-0100",
		Address:     "Wonderland",
	}
}

func TestRegister_ThenDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	acct, err := f.svc.Register(ctx, alice())
	require.NoError(t, err)
	assert.NotEmpty(t, acct.ID)
	assert.NotEqual(t, "secret123", acct.PasswordHash)
	assert.True(t, f.hasher.Verify(acct.PasswordHash, "secret123"))

	again := alice()
	again.Username = "alice2"
	_, err = f.svc.Register(ctx, again)
	assert.ErrorIs(t, err, ErrDuplicateAccount)
	assert.Equal(t, 1, f.accounts.len())
}

func TestRegister_DuplicateUsername(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, alice())
	require.NoError(t, err)

	again := alice()
	again.Email = "other@x.com"
	_, err = f.svc.Register(ctx, again)
	assert.ErrorIs(t, err, ErrDuplicateAccount)
}

func TestRegister_NormalizesEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	in := alice()
	in.Email = "  A@X.COM "
	acct, err := f.svc.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", acct.Email)

	again := alice()
	again.Username = "bob"
	_, err = f.svc.Register(ctx, again)
	assert.ErrorIs(t, err, ErrDuplicateAccount)
}

func TestRegister_RequiresFields(t *testing.T) {
	f := newAuthFixture(t)
	in := alice()
	in.Password = ""

	_, err := f.svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, f.accounts.len())
}

func TestRegister_PasswordTooLong(t *testing.T) {
	f := newAuthFixture(t)
	in := alice()
	in.Password = strings.Repeat("p", 73)

	_, err := f.svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, utils.ErrPasswordTooLong)
	assert.Zero(t, f.accounts.len())
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, dups int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := alice()
			in.Username = "alice" + string(rune('a'+i))
			_, err := f.svc.Register(ctx, in)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrDuplicateAccount):
				dups++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dups)
	assert.Equal(t, 1, f.accounts.len())
}

func TestRegister_AvatarAttached(t *testing.T) {
	f := newAuthFixture(t)
	in := alice()
	in.Avatar = &media.Upload{Filename: "me.png", Body: strings.NewReader("png")}
	f.uploader.On("Upload", mock.Anything, mock.MatchedBy(func(u media.Upload) bool { return u.Filename == "me.png" })).
		Return("https://cdn/uploads/me.png", nil).Once()

	acct, err := f.svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/uploads/me.png", acct.Avatar)
}

func TestRegister_AvatarFailureStillRegisters(t *testing.T) {
	f := newAuthFixture(t)
	in := alice()
	in.Avatar = &media.Upload{Filename: "me.png", Body: strings.NewReader("png")}
	f.uploader.On("Upload", mock.Anything, mock.Anything).Return("", errors.New("media host down")).Once()

	acct, err := f.svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, acct.Avatar)
	assert.True(t, f.hasher.Verify(acct.PasswordHash, "secret123"))
}

func TestRegister_DuplicateSkipsUpload(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), alice())
	require.NoError(t, err)

	in := alice()
	in.Avatar = &media.Upload{Filename: "me.png", Body: strings.NewReader("png")}
	_, err = f.svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrDuplicateAccount)
	f.uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestRegister_PublishesEventWithoutPassword(t *testing.T) {
	tokens, _ := utils.NewTokenService("k", 0)
	events := &mockPublisher{}
	svc := NewAuthService(newMemAccounts(), utils.NewBcryptHasher(bcrypt.MinCost), tokens, nil, events)

	events.On("Publish", mock.Anything, queue.AccountRegisteredQueue, mock.MatchedBy(func(ev queue.AccountRegisteredEvent) bool {
		return ev.Username == "alice" && ev.Email == "a@x.com" && ev.AccountID != ""
	})).Return(errors.New("broker down")).Once()

	_, err := svc.Register(context.Background(), alice())
	require.NoError(t, err, "publish failures must not fail registration")
	events.AssertExpectations(t)
}

func TestRegister_StoreFailureIsInfrastructure(t *testing.T) {
	f := newAuthFixture(t)
	f.accounts.err = errors.New("connection refused")

	_, err := f.svc.Register(context.Background(), alice())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateAccount)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}

func TestLogin_IssuesTokenForAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	acct, err := f.svc.Register(ctx, alice())
	require.NoError(t, err)

	token, err := f.svc.Login(ctx, "alice", "secret123")
	require.NoError(t, err)

	claims, err := f.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, claims.Subject)

	_, err = f.svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownAndWrongPasswordLookAlike(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, alice())
	require.NoError(t, err)

	before := f.hasher.verifies
	_, errUnknown := f.svc.Login(ctx, "nobody", "secret123")
	_, errWrong := f.svc.Login(ctx, "alice", "nope")

	require.Error(t, errUnknown)
	assert.Equal(t, errWrong, errUnknown)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())
	assert.Equal(t, before+2, f.hasher.verifies, "both paths must run a bcrypt comparison")
}

func TestAuthenticate(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	acct, err := f.svc.Register(ctx, alice())
	require.NoError(t, err)
	token, err := f.svc.Login(ctx, "alice", "secret123")
	require.NoError(t, err)

	got, err := f.svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.ID)

	_, err = f.svc.Authenticate(ctx, token+"x")
	assert.ErrorIs(t, err, utils.ErrTokenInvalid)

	orphan, err := f.tokens.Issue(utils.Claims{Subject: "404"})
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, orphan)
	assert.ErrorIs(t, err, utils.ErrTokenInvalid)
}

func TestUpdateProfile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	a, err := f.svc.Register(ctx, alice())
	require.NoError(t, err)
	bob := alice()
	bob.Username, bob.Email = "bob", "b@x.com"
	_, err = f.svc.Register(ctx, bob)
	require.NoError(t, err)

	addr := "Looking-Glass House"
	got, err := f.svc.UpdateProfile(ctx, a.ID, model.AccountPatch{Address: &addr}, nil)
	require.NoError(t, err)
	assert.Equal(t, addr, got.Address)
	assert.Equal(t, "alice", got.Username)

	taken := "b@x.com"
	_, err = f.svc.UpdateProfile(ctx, a.ID, model.AccountPatch{Email: &taken}, nil)
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	_, err = f.svc.UpdateProfile(ctx, a.ID, model.AccountPatch{}, nil)
	assert.ErrorIs(t, err, repository.ErrEmptyPatch)
}

func TestUpdateProfile_AvatarOnly(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	a, err := f.svc.Register(ctx, alice())
	require.NoError(t, err)

	f.uploader.On("Upload", mock.Anything, mock.Anything).Return("https://cdn/new.png", nil).Once()
	got, err := f.svc.UpdateProfile(ctx, a.ID, model.AccountPatch{}, &media.Upload{Filename: "new.png", Body: strings.NewReader("x")})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/new.png", got.Avatar)

	f.uploader.On("Upload", mock.Anything, mock.Anything).Return("", media.ErrMediaDisabled).Once()
	_, err = f.svc.UpdateProfile(ctx, a.ID, model.AccountPatch{}, &media.Upload{Filename: "new.png", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, media.ErrMediaDisabled)
}
