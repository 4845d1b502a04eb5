package admins

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/duchm/foliogate/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeAdminRepo struct {
	mu     sync.Mutex
	admins map[uint]*model.Admin
}

func newFakeAdminRepo(seed ...*model.Admin) *fakeAdminRepo {
	repo := &fakeAdminRepo{admins: make(map[uint]*model.Admin)}
	for _, admin := range seed {
		if admin.ID == 0 {
			admin.ID = model.GenerateID()
		}
		repo.admins[admin.ID] = admin
	}
	return repo
}

func (r *fakeAdminRepo) FirstByID(ctx context.Context, id uint) (*model.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if admin, ok := r.admins[id]; ok {
		clone := *admin
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAdminRepo) FirstByUsername(ctx context.Context, username string) (*model.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, admin := range r.admins {
		if admin.Username == username {
			clone := *admin
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAdminRepo) FirstByResetToken(ctx context.Context, token string, now time.Time) (*model.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, admin := range r.admins {
		if admin.ResetToken != nil && *admin.ResetToken == token &&
			admin.ResetTokenExpiry != nil && admin.ResetTokenExpiry.After(now) {
			clone := *admin
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAdminRepo) ExistsOther(ctx context.Context, username string, excludeID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, admin := range r.admins {
		if admin.Username == username && admin.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAdminRepo) Create(ctx context.Context, admin *model.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if admin.ID == 0 {
		admin.ID = model.GenerateID()
	}
	for _, existing := range r.admins {
		if existing.Username == admin.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	clone := *admin
	r.admins[admin.ID] = &clone
	return nil
}

func (r *fakeAdminRepo) Updates(ctx context.Context, id uint, columns map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	admin, ok := r.admins[id]
	if !ok {
		return nil
	}
	for col, val := range columns {
		switch col {
		case ColPassword:
			admin.Password = val.(string)
		case ColUsername:
			admin.Username = val.(string)
		case ColPasswordChangedAt:
			t := val.(time.Time)
			admin.PasswordChangedAt = &t
		case ColResetToken:
			admin.ResetToken = optString(val)
		case ColResetTokenExpiry:
			admin.ResetTokenExpiry = optTime(val)
		case ColLoginOTP:
			admin.LoginOTP = optString(val)
		case ColLoginOTPExpiry:
			admin.LoginOTPExpiry = optTime(val)
		}
	}
	return nil
}

func (r *fakeAdminRepo) get(id uint) *model.Admin {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.admins[id]
}

func optString(val interface{}) *string {
	if val == nil {
		return nil
	}
	s := val.(string)
	return &s
}

func optTime(val interface{}) *time.Time {
	if val == nil {
		return nil
	}
	t := val.(time.Time)
	return &t
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestService(t *testing.T, password string) (*AdminService, *fakeAdminRepo, *model.Admin) {
	t.Helper()
	admin := &model.Admin{
		ID:       1,
		Username: "admin@example.com",
		Password: mustHash(t, password),
	}
	repo := newFakeAdminRepo(admin)
	return NewAdminService(repo), repo, admin
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newTestService(t, "hunter22")

	admin, err := svc.Authenticate(context.Background(), "admin@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, uint(1), admin.ID)

	_, err = svc.Authenticate(context.Background(), "admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// unknown usernames must fail with the same error as a wrong password
	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	svc, repo, _ := newTestService(t, "hunter22")
	ctx := context.Background()

	assert.ErrorIs(t, svc.ChangePassword(ctx, 1, "hunter22", "short"), ErrPasswordTooShort)
	assert.ErrorIs(t, svc.ChangePassword(ctx, 1, "wrong", "newpassword"), ErrInvalidCredentials)
	assert.ErrorIs(t, svc.ChangePassword(ctx, 1, "hunter22", "hunter22"), ErrPasswordUnchanged)

	before := time.Now()
	require.NoError(t, svc.ChangePassword(ctx, 1, "hunter22", "newpassword"))

	stored := repo.get(1)
	require.NotNil(t, stored.PasswordChangedAt)
	assert.False(t, stored.PasswordChangedAt.Before(before.Truncate(time.Second)))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("newpassword")))
}

func TestChangeUsername(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		newUsername string
		wantErr     error
	}{
		{"invalid email", "not-an-email", ErrInvalidEmail},
		{"same as current", "Admin@Example.com", ErrUsernameUnchanged},
		{"taken by another account", "other@example.com", ErrUsernameTaken},
		{"valid", "  New@Example.com ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService(t, "hunter22")
			other := &model.Admin{ID: 2, Username: "other@example.com", Password: mustHash(t, "x12345")}
			require.NoError(t, repo.Create(ctx, other))

			updated, err := svc.ChangeUsername(ctx, 1, tt.newUsername)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "new@example.com", updated)
			stored := repo.get(1)
			assert.Equal(t, "new@example.com", stored.Username)
			assert.NotNil(t, stored.PasswordChangedAt, "username change must invalidate existing tokens")
		})
	}
}

func TestIssueResetToken(t *testing.T) {
	svc, repo, _ := newTestService(t, "hunter22")
	ctx := context.Background()

	// unknown username is a silent no-op
	admin, token, err := svc.IssueResetToken(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, admin)
	assert.Empty(t, token)

	admin, token, err = svc.IssueResetToken(ctx, "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Len(t, token, 64) // 32 random bytes hex encoded

	stored := repo.get(1)
	require.NotNil(t, stored.ResetToken)
	assert.Equal(t, token, *stored.ResetToken)
	require.NotNil(t, stored.ResetTokenExpiry)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), *stored.ResetTokenExpiry, time.Minute)

	// issuing again replaces the previous token
	_, second, err := svc.IssueResetToken(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, token, second)
	assert.Equal(t, second, *repo.get(1).ResetToken)
}

func TestConsumeResetToken(t *testing.T) {
	svc, repo, _ := newTestService(t, "hunter22")
	ctx := context.Background()

	_, token, err := svc.IssueResetToken(ctx, "admin@example.com")
	require.NoError(t, err)

	// too-short passwords are rejected before the token is consumed
	assert.ErrorIs(t, svc.ConsumeResetToken(ctx, token, "abc"), ErrPasswordTooShort)
	assert.NotNil(t, repo.get(1).ResetToken)

	assert.ErrorIs(t, svc.ConsumeResetToken(ctx, strings.Repeat("0", 64), "newpassword"), ErrResetTokenInvalid)

	require.NoError(t, svc.ConsumeResetToken(ctx, token, "newpassword"))
	stored := repo.get(1)
	assert.Nil(t, stored.ResetToken)
	assert.Nil(t, stored.ResetTokenExpiry)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("newpassword")))

	// single use: the same token cannot be consumed twice
	assert.ErrorIs(t, svc.ConsumeResetToken(ctx, token, "anotherpassword"), ErrResetTokenInvalid)
}

func TestConsumeResetTokenExpired(t *testing.T) {
	svc, repo, _ := newTestService(t, "hunter22")
	ctx := context.Background()

	_, token, err := svc.IssueResetToken(ctx, "admin@example.com")
	require.NoError(t, err)

	expired := time.Now().Add(-time.Second)
	repo.get(1).ResetTokenExpiry = &expired

	assert.ErrorIs(t, svc.ConsumeResetToken(ctx, token, "newpassword"), ErrResetTokenInvalid)
}
