package permission

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Luismorlan/pingbot/model"
	"github.com/Luismorlan/pingbot/store"
	"github.com/Luismorlan/pingbot/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeDirectory struct {
	managers map[string][]string
	creators map[string]string
}

func (d *fakeDirectory) ChannelManagers(ctx context.Context, channelId string) []string {
	return d.managers[channelId]
}

func (d *fakeDirectory) ChannelCreator(ctx context.Context, channelId string) string {
	return d.creators[channelId]
}

type notification struct {
	userId string
	text   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *fakeNotifier) Notify(ctx context.Context, userId string, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{userId: userId, text: text})
	return nil
}

type testEnv struct {
	db       *gorm.DB
	store    *store.Store
	dir      *fakeDirectory
	notifier *fakeNotifier
	resolver *Resolver
}

func newTestEnv(t *testing.T) *testEnv {
	db, _ := utils.CreateTempDB(t)
	s := store.New(db)
	dir := &fakeDirectory{managers: map[string][]string{}, creators: map[string]string{}}
	notifier := &fakeNotifier{}
	return &testEnv{
		db:       db,
		store:    s,
		dir:      dir,
		notifier: notifier,
		resolver: NewResolver(s, dir, notifier),
	}
}

func (e *testEnv) permissionRows(t *testing.T) int64 {
	var count int64
	require.NoError(t, e.db.Model(&model.PingPermission{}).Count(&count).Error)
	return count
}

func TestResolveAdminNeverCaches(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.store.AddAdmin(ctx, "UADMIN"))

	assert.True(t, env.resolver.Resolve(ctx, "UADMIN", "C1"))
	assert.True(t, env.resolver.Resolve(ctx, "UADMIN", "C2"))
	assert.Equal(t, int64(0), env.permissionRows(t))
}

func TestResolveManagerCachesOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.dir.managers["C1"] = []string{"U1"}

	assert.True(t, env.resolver.Resolve(ctx, "U1", "C1"))
	assert.Equal(t, int64(1), env.permissionRows(t))

	assert.True(t, env.resolver.Resolve(ctx, "U1", "C1"))
	assert.Equal(t, int64(1), env.permissionRows(t))

	ids, err := env.store.ListPermissions(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, []string{"U1"}, ids)
}

func TestResolveCreatorCaches(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.dir.creators["C1"] = "U1"

	assert.True(t, env.resolver.Resolve(ctx, "U1", "C1"))
	has, err := env.store.HasPermission(ctx, "U1", "C1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestResolveKeepsAccessAfterRoleLoss(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.dir.managers["C1"] = []string{"U1"}

	assert.True(t, env.resolver.Resolve(ctx, "U1", "C1"))

	// U1 is no longer a manager, the cached row still authorizes
	env.dir.managers["C1"] = nil
	assert.True(t, env.resolver.Resolve(ctx, "U1", "C1"))
}

func TestResolveNoRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.dir.managers["C1"] = []string{"U2"}
	env.dir.creators["C1"] = "U3"

	assert.False(t, env.resolver.Resolve(ctx, "U1", "C1"))
	assert.False(t, env.resolver.Resolve(ctx, "", "C1"))
	assert.Equal(t, int64(0), env.permissionRows(t))

	// manager of another channel only
	env.dir.managers["C2"] = []string{"U1"}
	assert.False(t, env.resolver.Resolve(ctx, "U1", "C1"))
}

func TestResolveExplicitPermission(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.store.InsertPermission(ctx, "U1", "C1"))

	assert.True(t, env.resolver.Resolve(ctx, "U1", "C1"))
	assert.False(t, env.resolver.Resolve(ctx, "U1", "C2"))
}

// failingStore answers every lookup with an error.
type failingStore struct {
	*store.Store
}

func (failingStore) IsAdmin(ctx context.Context, userId string) (bool, error) {
	return false, errors.New("db is down")
}

func (failingStore) HasPermission(ctx context.Context, userId string, channelId string) (bool, error) {
	return false, errors.New("db is down")
}

func TestResolveLookupFailuresCountAsFalse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.store.AddAdmin(ctx, "UADMIN"))
	require.NoError(t, env.store.InsertPermission(ctx, "U1", "C1"))
	env.dir.managers["C1"] = []string{"U2"}
	resolver := NewResolver(failingStore{env.store}, env.dir, env.notifier)

	assert.False(t, resolver.Resolve(ctx, "UADMIN", "C1"))
	assert.False(t, resolver.Resolve(ctx, "U1", "C1"))
	// the role check alone still authorizes
	assert.True(t, resolver.Resolve(ctx, "U2", "C1"))
}

func TestResolveConcurrentFirstPings(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.dir.managers["C1"] = []string{"U1"}

	var wg sync.WaitGroup
	results := make([]bool, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = env.resolver.Resolve(ctx, "U1", "C1")
		}(i)
	}
	wg.Wait()

	for _, ok := range results {
		assert.True(t, ok)
	}
	assert.Equal(t, int64(1), env.permissionRows(t))
}

func TestGrantAndRevoke(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.dir.managers["C1"] = []string{"UMANAGER"}

	target, err := env.resolver.Grant(ctx, "UMANAGER", "<@U2|bob>", "C1")
	require.NoError(t, err)
	assert.Equal(t, "U2", target)
	assert.True(t, env.resolver.Resolve(ctx, "U2", "C1"))

	_, err = env.resolver.Grant(ctx, "UMANAGER", "<@U2>", "C1")
	assert.ErrorIs(t, err, ErrAlreadyGranted)

	target, err = env.resolver.Revoke(ctx, "UMANAGER", "<@U2>", "C1")
	require.NoError(t, err)
	assert.Equal(t, "U2", target)
	assert.False(t, env.resolver.Resolve(ctx, "U2", "C1"))

	_, err = env.resolver.Revoke(ctx, "UMANAGER", "<@U2>", "C1")
	assert.ErrorIs(t, err, ErrNotGranted)

	require.Len(t, env.notifier.sent, 2)
	assert.Equal(t, "U2", env.notifier.sent[0].userId)
	assert.Contains(t, env.notifier.sent[0].text, "gave you permission")
	assert.Contains(t, env.notifier.sent[1].text, "removed your permission")
}

func TestRevokeNeverGranted(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.store.AddAdmin(ctx, "UADMIN"))

	_, err := env.resolver.Revoke(ctx, "UADMIN", "<@U9>", "C1")
	assert.ErrorIs(t, err, ErrNotGranted)
	assert.Empty(t, env.notifier.sent)
}

func TestGrantRejections(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.store.AddAdmin(ctx, "UADMIN"))

	_, err := env.resolver.Grant(ctx, "U1", "<@U2>", "C1")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.resolver.Revoke(ctx, "U1", "<@U2>", "C1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.resolver.Grant(ctx, "UADMIN", "bob", "C1")
	assert.ErrorIs(t, err, ErrInvalidTarget)
	_, err = env.resolver.Revoke(ctx, "UADMIN", "<#C123>", "C1")
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	ids, err := env.resolver.List(ctx, "C1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, env.store.AddAdmin(ctx, "UADMIN"))
	require.NoError(t, env.store.InsertPermission(ctx, "U1", "C1"))
	require.NoError(t, env.store.InsertPermission(ctx, "U5", "C2"))
	env.dir.managers["C1"] = []string{"U2", "U1", "not-an-id"}
	env.dir.creators["C1"] = "W3"

	ids, err = env.resolver.List(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, []string{"U1", "U2", "UADMIN", "W3"}, ids)
}

func TestManagerEndToEnd(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.dir.managers["C1"] = []string{"U1"}

	assert.True(t, env.resolver.Resolve(ctx, "U1", "C1"))

	ids, err := env.store.ListPermissions(ctx, "C1")
	require.NoError(t, err)
	assert.Contains(t, ids, "U1")
}
