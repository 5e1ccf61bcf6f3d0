package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clione/sikre/internal/common"
	"github.com/clione/sikre/internal/server/config"
	"github.com/clione/sikre/internal/server/models"
	"github.com/clione/sikre/internal/server/repositories/repomanager"
)

func newTestManager(t *testing.T) repomanager.RepositoryManager {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	m, err := repomanager.NewSQLite(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	return m
}

func testConfig() *config.Config {
	return &config.Config{
		SiteDomain:            "localhost",
		SecretKey:             "test-secret",
		SessionExpires:        12 * time.Hour,
		TokenValidityDuration: time.Hour,
	}
}

func registerUser(t *testing.T, us *UserService, name string) *models.User {
	t.Helper()
	u, err := us.Register(context.Background(), name, name+"@example.com", "pw-"+name)
	require.NoError(t, err)
	return u
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	us := NewUserService(m.Users(), testConfig())

	u, err := us.Register(ctx, "alice", "alice@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "correct horse", u.MasterPassword, "master password must be stored hashed")

	token, err := us.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// the issued token passes session validation and names the account
	subject, err := us.Authenticator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, subject)
}

func TestUserService_Login_WrongPassword(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	us := NewUserService(m.Users(), testConfig())

	registerUser(t, us, "alice")

	_, err := us.Login(ctx, "alice", "not the password")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = us.Login(ctx, "nobody", "anything")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUserService_Register_DuplicateConflicts(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	us := NewUserService(m.Users(), testConfig())

	registerUser(t, us, "alice")

	_, err := us.Register(ctx, "alice", "other@example.com", "pw")
	assert.ErrorIs(t, err, common.ErrorConflict)

	_, err = us.Register(ctx, "alice2", "alice@example.com", "pw")
	assert.ErrorIs(t, err, common.ErrorConflict)
}

func TestUserService_CheckMasterPassword(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	us := NewUserService(m.Users(), testConfig())

	u := registerUser(t, us, "alice")

	ok, err := us.CheckMasterPassword(ctx, u.ID, "pw-alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = us.CheckMasterPassword(ctx, u.ID, "wrong")
	require.NoError(t, err, "a wrong password is a false result, not an error")
	assert.False(t, ok)

	require.NoError(t, us.SetMasterPassword(ctx, u.ID, "rotated"))

	ok, err = us.CheckMasterPassword(ctx, u.ID, "rotated")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVaultService_ItemVisibility(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	us := NewUserService(m.Users(), testConfig())
	vault := NewVaultService(m)

	alice := registerUser(t, us, "alice")
	bob := registerUser(t, us, "bob")

	item, err := vault.CreateItem(ctx, alice.ID, "Banking", "bank logins", "finance")
	require.NoError(t, err)

	// the author sees and reads the item without any association rows
	visible, err := vault.ListItems(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, item.ID, visible[0].ID)

	got, _, err := vault.GetItem(ctx, alice.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Banking", got.Name)

	// another user sees nothing and may not read it
	visible, err = vault.ListItems(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, visible)

	_, _, err = vault.GetItem(ctx, bob.ID, item.ID)
	assert.ErrorIs(t, err, common.ErrorPermissionDenied)

	// a missing item is not-found, never permission-denied
	_, _, err = vault.GetItem(ctx, alice.ID, "no-such-item")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestVaultService_CreateService_RequiresAccess(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	us := NewUserService(m.Users(), testConfig())
	vault := NewVaultService(m)

	alice := registerUser(t, us, "alice")
	bob := registerUser(t, us, "bob")

	item, err := vault.CreateItem(ctx, alice.ID, "Banking", "", "")
	require.NoError(t, err)

	svc, err := vault.CreateService(ctx, alice.ID, &models.Service{
		Name:     "checking",
		UserName: "alice",
		Password: "hunter2",
		URL:      "https://bank.example",
		ItemID:   item.ID,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, svc.ID)

	_, err = vault.CreateService(ctx, bob.ID, &models.Service{Name: "rogue", ItemID: item.ID})
	assert.ErrorIs(t, err, common.ErrorPermissionDenied)

	// the authorized detail read returns the stored credential
	_, svcs, err := vault.GetItem(ctx, alice.ID, item.ID)
	require.NoError(t, err)
	require.Len(t, svcs, 1)
	assert.Equal(t, "hunter2", svcs[0].Password)
}

func TestVaultService_Groups(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	us := NewUserService(m.Users(), testConfig())
	vault := NewVaultService(m)

	alice := registerUser(t, us, "alice")
	bob := registerUser(t, us, "bob")
	carol := registerUser(t, us, "carol")

	group, err := vault.CreateGroup(ctx, alice.ID, "household")
	require.NoError(t, err)

	// the creator is enrolled automatically
	mine, err := vault.ListGroups(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, group.ID, mine[0].ID)

	item, err := vault.CreateItem(ctx, alice.ID, "Wifi", "", "")
	require.NoError(t, err)

	// non-members may not administer the group
	err = vault.AddUserToGroup(ctx, carol.ID, group.ID, carol.ID)
	assert.ErrorIs(t, err, common.ErrorPermissionDenied)
	err = vault.AddItemToGroup(ctx, carol.ID, group.ID, item.ID)
	assert.ErrorIs(t, err, common.ErrorPermissionDenied)

	require.NoError(t, vault.AddItemToGroup(ctx, alice.ID, group.ID, item.ID))
	require.NoError(t, vault.AddUserToGroup(ctx, alice.ID, group.ID, bob.ID))

	// membership added after the item was categorized still grants access
	ok, err := vault.CanAccessItem(ctx, bob.ID, item.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	visible, err := vault.ListItems(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, item.ID, visible[0].ID)

	listed, err := vault.ListGroupItems(ctx, bob.ID, group.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	_, err = vault.ListGroupItems(ctx, carol.ID, group.ID)
	assert.ErrorIs(t, err, common.ErrorPermissionDenied)
}

func TestShareService_ItemShareLifecycle(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	us := NewUserService(m.Users(), testConfig())
	vault := NewVaultService(m)
	shares := NewShareService(m, 0)

	alice := registerUser(t, us, "alice")
	bob := registerUser(t, us, "bob")

	item, err := vault.CreateItem(ctx, alice.ID, "Banking", "", "")
	require.NoError(t, err)

	// only holders of the resource may issue a share for it
	_, err = shares.Issue(ctx, bob.ID, models.ResourceItem, item.ID, "bob@example.com")
	assert.ErrorIs(t, err, common.ErrorPermissionDenied)

	token, err := shares.Issue(ctx, alice.ID, models.ResourceItem, item.ID, "bob@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token.Token)
	assert.False(t, token.Used)

	// validation is side-effect free
	for i := 0; i < 3; i++ {
		res, err := shares.Validate(ctx, token.Token)
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.Equal(t, models.ResourceItem, res.Resource)
		assert.Equal(t, item.ID, res.ResourceID)
		assert.Equal(t, alice.ID, res.IssuerID)
	}

	redeemed, err := shares.Redeem(ctx, token.Token, bob.ID)
	require.NoError(t, err)
	assert.True(t, redeemed.Used)

	// redemption granted access
	got, _, err := vault.GetItem(ctx, bob.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)

	// a consumed token redeems exactly once and validates as spent
	_, err = shares.Redeem(ctx, token.Token, bob.ID)
	assert.ErrorIs(t, err, common.ErrorTokenUsed)

	res, err := shares.Validate(ctx, token.Token)
	require.NoError(t, err)
	assert.False(t, res.Valid)

	_, err = shares.Validate(ctx, "never-issued")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestShareService_ServiceShareGrantsParentItem(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	us := NewUserService(m.Users(), testConfig())
	vault := NewVaultService(m)
	shares := NewShareService(m, 0)

	alice := registerUser(t, us, "alice")
	bob := registerUser(t, us, "bob")

	item, err := vault.CreateItem(ctx, alice.ID, "Banking", "", "")
	require.NoError(t, err)
	svc, err := vault.CreateService(ctx, alice.ID, &models.Service{Name: "checking", Password: "hunter2", ItemID: item.ID})
	require.NoError(t, err)

	token, err := shares.Issue(ctx, alice.ID, models.ResourceService, svc.ID, "bob@example.com")
	require.NoError(t, err)

	_, err = shares.Redeem(ctx, token.Token, bob.ID)
	require.NoError(t, err)

	// access flows through the parent item
	ok, err := vault.CanAccessService(ctx, bob.ID, svc.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, svcs, err := vault.GetItem(ctx, bob.ID, item.ID)
	require.NoError(t, err)
	require.Len(t, svcs, 1)
	assert.Equal(t, "hunter2", svcs[0].Password)
}

func TestShareService_CategoryShareGrantsMembership(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	us := NewUserService(m.Users(), testConfig())
	vault := NewVaultService(m)
	shares := NewShareService(m, 0)

	alice := registerUser(t, us, "alice")
	bob := registerUser(t, us, "bob")

	group, err := vault.CreateGroup(ctx, alice.ID, "household")
	require.NoError(t, err)
	item, err := vault.CreateItem(ctx, alice.ID, "Wifi", "", "")
	require.NoError(t, err)
	require.NoError(t, vault.AddItemToGroup(ctx, alice.ID, group.ID, item.ID))

	// only members may share the group
	_, err = shares.Issue(ctx, bob.ID, models.ResourceCategory, group.ID, "bob@example.com")
	assert.ErrorIs(t, err, common.ErrorPermissionDenied)

	token, err := shares.Issue(ctx, alice.ID, models.ResourceCategory, group.ID, "bob@example.com")
	require.NoError(t, err)

	_, err = shares.Redeem(ctx, token.Token, bob.ID)
	require.NoError(t, err)

	groups, err := vault.ListGroups(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	ok, err := vault.CanAccessItem(ctx, bob.ID, item.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestShareService_ExpiredTokenIsSpent(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	us := NewUserService(m.Users(), testConfig())
	vault := NewVaultService(m)
	shares := NewShareService(m, time.Hour)

	alice := registerUser(t, us, "alice")
	bob := registerUser(t, us, "bob")

	item, err := vault.CreateItem(ctx, alice.ID, "Banking", "", "")
	require.NoError(t, err)

	token, err := shares.Issue(ctx, alice.ID, models.ResourceItem, item.ID, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, token.ExpiresAt.IsZero())

	// move the service clock past the expiry
	shares.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	res, err := shares.Validate(ctx, token.Token)
	require.NoError(t, err)
	assert.False(t, res.Valid)

	_, err = shares.Redeem(ctx, token.Token, bob.ID)
	assert.ErrorIs(t, err, common.ErrorTokenUsed)
}

func TestShareService_ConcurrentRedeem_ExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	us := NewUserService(m.Users(), testConfig())
	vault := NewVaultService(m)
	shares := NewShareService(m, 0)

	alice := registerUser(t, us, "alice")

	item, err := vault.CreateItem(ctx, alice.ID, "Banking", "", "")
	require.NoError(t, err)

	token, err := shares.Issue(ctx, alice.ID, models.ResourceItem, item.ID, "team@example.com")
	require.NoError(t, err)

	const n = 8
	redeemers := make([]*models.User, n)
	for i := range redeemers {
		redeemers[i] = registerUser(t, us, fmt.Sprintf("user%d", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = shares.Redeem(ctx, token.Token, redeemers[i].ID)
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, common.ErrorTokenUsed)
		}
	}
	assert.Equal(t, 1, won, "exactly one concurrent redeemer must win")
}
