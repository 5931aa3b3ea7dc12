package prefsync

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/atlist/internal/client/models"
	"github.com/dmitrijs2005/atlist/internal/client/repositories/localstore"
	"github.com/dmitrijs2005/atlist/internal/common"
	"github.com/dmitrijs2005/atlist/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	localstore.Repository
	mu   sync.Mutex
	data map[string][]byte
}

func newMemRepo() *memRepo { return &memRepo{data: map[string][]byte{}} }

func (m *memRepo) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memRepo) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memRepo) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memRepo) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// fakeRemote is an in-memory settings table.
type fakeRemote struct {
	mu      sync.Mutex
	rows    map[models.Identity]models.SettingsPatch
	readErr error
	saveErr error
	gate    chan struct{}
	saves   int
	clears  int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{rows: map[models.Identity]models.SettingsPatch{}}
}

func (f *fakeRemote) load(ctx context.Context, id models.Identity) (models.SettingsPatch, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return models.SettingsPatch{}, f.readErr
	}
	p, ok := f.rows[id]
	if !ok {
		return models.SettingsPatch{}, common.ErrorNotFound
	}
	return p, nil
}

func (f *fakeRemote) save(ctx context.Context, id models.Identity, v models.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.rows[id] = v.Patch()
	return nil
}

func (f *fakeRemote) clear(ctx context.Context, id models.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	delete(f.rows, id)
	return nil
}

func (f *fakeRemote) row(id models.Identity) (models.SettingsPatch, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	return p, ok
}

func newSettingsSync(local localstore.Repository, remote *fakeRemote) *Synchronizer[models.Settings, models.SettingsPatch] {
	return New(Deps{Local: local, Logger: logging.Nop()}, Binding[models.Settings, models.SettingsPatch]{
		Kind:     localstore.KindSettings,
		Defaults: models.DefaultSettings,
		Load:     remote.load,
		Save:     remote.save,
		Clear:    remote.clear,
	})
}

func ptr[T any](v T) *T { return &v }

func putLocal(t *testing.T, repo localstore.Repository, key string, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, repo.Set(context.Background(), key, raw))
}

func TestHydrate_RemoteWinsFieldByField(t *testing.T) {
	local := newMemRepo()
	remote := newFakeRemote()
	putLocal(t, local, "settings_state_u1", map[string]any{"theme": "dark", "notificationsEnabled": false})
	remote.rows["u1"] = models.SettingsPatch{Theme: ptr(models.ThemeLight)}

	s := newSettingsSync(local, remote)
	got, err := s.Hydrate(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, models.ThemeLight, got.Theme)
	assert.False(t, got.NotificationsEnabled, "local value kept where remote is null")
	assert.Equal(t, models.PreloadOn, got.PreloadMode, "default where neither side has a value")
	assert.False(t, s.Loading())

	row, ok := remote.row("u1")
	require.True(t, ok)
	assert.Equal(t, got, models.Settings{}.Apply(row), "merged value written back")
}

func TestHydrate_NotFoundInsertsMergedValue(t *testing.T) {
	remote := newFakeRemote()
	s := newSettingsSync(newMemRepo(), remote)

	got, err := s.Hydrate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), got)

	_, ok := remote.row("u1")
	assert.True(t, ok, "default row created lazily")
}

func TestHydrate_RemoteFailureKeepsLocalAndSkipsWriteBack(t *testing.T) {
	local := newMemRepo()
	remote := newFakeRemote()
	remote.readErr = errors.New("network down")
	putLocal(t, local, "settings_state_u1", map[string]any{"theme": "dark"})

	s := newSettingsSync(local, remote)
	got, err := s.Hydrate(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, models.ThemeDark, got.Theme)
	assert.Equal(t, 0, remote.saves)
}

func TestHydrate_MalformedLocalIsIgnored(t *testing.T) {
	local := newMemRepo()
	require.NoError(t, local.Set(context.Background(), "settings_state", []byte("{oops")))
	putLocal(t, local, "settings_state_u2", map[string]any{"theme": "neon"})

	s := newSettingsSync(local, newFakeRemote())
	got, err := s.Hydrate(context.Background(), models.Anonymous)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), got)

	got, err = s.Hydrate(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), got)
}

func TestHydrate_AnonymousNeverTouchesRemote(t *testing.T) {
	remote := newFakeRemote()
	remote.readErr = errors.New("must not be called")
	s := newSettingsSync(newMemRepo(), remote)

	_, err := s.Hydrate(context.Background(), models.Anonymous)
	require.NoError(t, err)
	s.Mutate(context.Background(), models.SettingsPatch{Theme: ptr(models.ThemeDark)})
	s.Reset(context.Background())
	s.Wait()

	assert.Equal(t, 0, remote.saves)
	assert.Equal(t, 0, remote.clears)
}

func TestHydrate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newSettingsSync(newMemRepo(), newFakeRemote())
	_, err := s.Hydrate(ctx, "u1")
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, s.Loading())
}

func TestMutate_PublishesAndMirrors(t *testing.T) {
	local := newMemRepo()
	remote := newFakeRemote()
	s := newSettingsSync(local, remote)
	_, err := s.Hydrate(context.Background(), "u1")
	require.NoError(t, err)

	var seen []models.Settings
	cancel := s.Subscribe(func(v models.Settings) { seen = append(seen, v) })
	defer cancel()

	got := s.Mutate(context.Background(), models.SettingsPatch{PreloadMode: ptr(models.PreloadOff)})
	assert.Equal(t, models.PreloadOff, got.PreloadMode)
	assert.Equal(t, got, s.Current())
	require.Len(t, seen, 1)

	s.Wait()
	row, _ := remote.row("u1")
	assert.Equal(t, models.PreloadOff, *row.PreloadMode)
}

func TestMutate_RemoteFailureSwallowed(t *testing.T) {
	remote := newFakeRemote()
	s := newSettingsSync(newMemRepo(), remote)
	_, err := s.Hydrate(context.Background(), "u1")
	require.NoError(t, err)

	remote.mu.Lock()
	remote.saveErr = errors.New("503")
	remote.mu.Unlock()

	got := s.Mutate(context.Background(), models.SettingsPatch{Theme: ptr(models.ThemeDark)})
	s.Wait()
	assert.Equal(t, models.ThemeDark, got.Theme)
	assert.Equal(t, models.ThemeDark, s.Current().Theme)
}

func TestMutateThenHydrate_SurvivesRestartWhenRemoteUnreachable(t *testing.T) {
	local := newMemRepo()
	remote := newFakeRemote()
	s := newSettingsSync(local, remote)
	_, err := s.Hydrate(context.Background(), "u1")
	require.NoError(t, err)

	remote.mu.Lock()
	remote.saveErr = errors.New("offline")
	remote.mu.Unlock()
	want := s.Mutate(context.Background(), models.SettingsPatch{Theme: ptr(models.ThemeDark), TwoFactorEnabled: ptr(true)})
	s.Wait()

	remote.mu.Lock()
	remote.readErr = errors.New("offline")
	remote.mu.Unlock()

	restarted := newSettingsSync(local, remote)
	got, err := restarted.Hydrate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAnonymousIsolation(t *testing.T) {
	local := newMemRepo()
	remote := newFakeRemote()
	remote.rows["u1"] = models.SettingsPatch{NotificationsEnabled: ptr(false)}
	s := newSettingsSync(local, remote)
	ctx := context.Background()

	_, err := s.Hydrate(ctx, models.Anonymous)
	require.NoError(t, err)
	s.Mutate(ctx, models.SettingsPatch{Theme: ptr(models.ThemeDark)})

	signedIn, err := s.Hydrate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ThemeSystem, signedIn.Theme, "anonymous copy is not merged into the identity")
	assert.False(t, signedIn.NotificationsEnabled)

	out, err := s.Hydrate(ctx, models.Anonymous)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), out)
	assert.False(t, local.has("settings_state_u1"), "signed-in local copy discarded")

	_, stillRemote := remote.row("u1")
	assert.True(t, stillRemote, "sign-out keeps the remote row")

	restarted := newSettingsSync(local, remote)
	again, err := restarted.Hydrate(ctx, models.Anonymous)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), again, "old anonymous values are not resurrected")
}

func TestSignOut_FromFreshSynchronizer(t *testing.T) {
	local := newMemRepo()
	remote := newFakeRemote()
	ctx := context.Background()

	putLocal(t, local, "settings_state", models.SettingsPatch{Theme: ptr(models.ThemeDark)})
	putLocal(t, local, "settings_state_u1", models.SettingsPatch{Theme: ptr(models.ThemeLight)})

	s := newSettingsSync(local, remote)
	require.True(t, s.Identity().IsAnonymous())

	out, err := s.SignOut(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), out)
	assert.Equal(t, models.DefaultSettings(), s.Current())
	assert.True(t, s.Identity().IsAnonymous())
	assert.False(t, s.Loading())
	assert.False(t, local.has("settings_state_u1"))

	again, err := newSettingsSync(local, remote).Hydrate(ctx, models.Anonymous)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeSystem, again.Theme)
}

func TestSignOut_FromAnonymousHydrates(t *testing.T) {
	local := newMemRepo()
	putLocal(t, local, "settings_state", models.SettingsPatch{Theme: ptr(models.ThemeDark)})
	s := newSettingsSync(local, newFakeRemote())

	out, err := s.SignOut(context.Background(), models.Anonymous)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, out.Theme)
}

func TestReset_DeletesRemoteRow(t *testing.T) {
	remote := newFakeRemote()
	remote.rows["u1"] = models.SettingsPatch{Theme: ptr(models.ThemeDark)}
	local := newMemRepo()
	s := newSettingsSync(local, remote)

	_, err := s.Hydrate(context.Background(), "u1")
	require.NoError(t, err)
	got := s.Reset(context.Background())
	s.Wait()

	assert.Equal(t, models.DefaultSettings(), got)
	_, ok := remote.row("u1")
	assert.False(t, ok)
	assert.Equal(t, 1, remote.clears)

	var p models.SettingsPatch
	found, err := localstore.LoadJSON(context.Background(), local, "settings_state_u1", &p)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.DefaultSettings(), models.Settings{}.Apply(p))
}

func TestHydrate_StaleResultDiscarded(t *testing.T) {
	local := newMemRepo()
	remote := newFakeRemote()
	remote.rows["u1"] = models.SettingsPatch{Theme: ptr(models.ThemeLight)}
	remote.gate = make(chan struct{})
	s := newSettingsSync(local, remote)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Hydrate(context.Background(), "u1")
	}()

	require.Eventually(t, func() bool { return s.Identity() == "u1" }, timeoutShort, tick)
	s.Mutate(context.Background(), models.SettingsPatch{Theme: ptr(models.ThemeDark)})

	close(remote.gate)
	<-done
	s.Wait()

	assert.Equal(t, models.ThemeDark, s.Current().Theme, "older hydrate must not clobber the newer mutation")
	assert.False(t, s.Loading())

	var p models.SettingsPatch
	_, err := localstore.LoadJSON(context.Background(), local, "settings_state_u1", &p)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, *p.Theme)
}

func TestUpdate_SameRemoteSkipsMirror(t *testing.T) {
	remote := newFakeRemote()
	s := New(Deps{Local: newMemRepo()}, Binding[models.Settings, models.SettingsPatch]{
		Kind:       localstore.KindSettings,
		Defaults:   models.DefaultSettings,
		Load:       remote.load,
		Save:       remote.save,
		SameRemote: func(a, b models.Settings) bool { return a.Theme == b.Theme },
	})
	_, err := s.Hydrate(context.Background(), "u1")
	require.NoError(t, err)
	before := remote.saves

	s.Mutate(context.Background(), models.SettingsPatch{TwoFactorEnabled: ptr(true)})
	s.Wait()
	assert.Equal(t, before, remote.saves)

	s.Mutate(context.Background(), models.SettingsPatch{Theme: ptr(models.ThemeDark)})
	s.Wait()
	assert.Equal(t, before+1, remote.saves)
}
