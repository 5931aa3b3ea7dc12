package cli

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/atlist/internal/client/repositories/localstore"
	"github.com/dmitrijs2005/atlist/internal/common"
	"github.com/dmitrijs2005/atlist/internal/logging"
	"github.com/dmitrijs2005/atlist/internal/rpc"
)

// memStore is an in-memory record store with the server's write rules:
// selections are replaced as a whole and profile upserts keep role and
// membership.
type memStore struct {
	mu    sync.Mutex
	rows  map[string][]rpc.Row
	token string
	down  bool
}

func newMemStore() *memStore { return &memStore{rows: map[string][]rpc.Row{}} }

func matches(r rpc.Row, f rpc.Filter) bool {
	for k, v := range f {
		if fmt.Sprint(r[k]) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}

func (m *memStore) SetAccessToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

func (m *memStore) Ping(ctx context.Context) error {
	if m.down {
		return common.ErrorInternal
	}
	return nil
}

func (m *memStore) Read(ctx context.Context, collection string, filter rpc.Filter, order string) ([]rpc.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []rpc.Row
	for _, r := range m.rows[collection] {
		if matches(r, filter) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Upsert(ctx context.Context, collection string, rows []rpc.Row) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch collection {
	case rpc.CollectionWebsites:
		for _, r := range rows {
			m.removeLocked(collection, rpc.Filter{"user_id": r["user_id"]})
		}
		m.rows[collection] = append(m.rows[collection], rows...)
	case rpc.CollectionTickets:
		for i, r := range rows {
			r["id"] = fmt.Sprintf("t%d", len(m.rows[collection])+i+1)
			r["created_at"] = time.Now().UTC().Format(time.RFC3339)
			r["status"] = "open"
		}
		m.rows[collection] = append(m.rows[collection], rows...)
	default:
		key := "id"
		if col, ok := rpc.IdentityScoped(collection); ok {
			key = col
		}
		for _, r := range rows {
			merged := false
			for _, old := range m.rows[collection] {
				if old[key] == r[key] {
					for k, v := range r {
						old[k] = v
					}
					merged = true
				}
			}
			if !merged {
				m.rows[collection] = append(m.rows[collection], r)
			}
		}
	}
	return int64(len(rows)), nil
}

func (m *memStore) removeLocked(collection string, filter rpc.Filter) int64 {
	var kept []rpc.Row
	var n int64
	for _, r := range m.rows[collection] {
		if matches(r, filter) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.rows[collection] = kept
	return n
}

func (m *memStore) Delete(ctx context.Context, collection string, filter rpc.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(collection, filter), nil
}

func (m *memStore) put(collection string, r rpc.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[collection] = append(m.rows[collection], r)
}

func (m *memStore) all(collection string) []rpc.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]rpc.Row(nil), m.rows[collection]...)
}

type fakeFunctions struct {
	Functions
	token      string
	checkouts  []string
	deleted    bool
	broadcasts []string
	err        error
}

func (f *fakeFunctions) SetAccessToken(token string) { f.token = token }

func (f *fakeFunctions) CreateCheckoutSession(ctx context.Context, email, promo string) (string, error) {
	f.checkouts = append(f.checkouts, email+"|"+promo)
	return "https://checkout.test/s/1", f.err
}

func (f *fakeFunctions) DeleteAccount(ctx context.Context) error {
	f.deleted = true
	return f.err
}

func (f *fakeFunctions) BroadcastPush(ctx context.Context, message string, membersOnly bool) error {
	f.broadcasts = append(f.broadcasts, message)
	return f.err
}

func seedCatalog(m *memStore, ids ...string) {
	for _, id := range ids {
		m.put(rpc.CollectionCatalog, rpc.Row{"id": id, "name": id, "category": "Shopping", "url": "https://" + strings.ToLower(id) + ".test/"})
	}
}

type testEnv struct {
	app   *App
	store *memStore
	fn    *fakeFunctions
	local *sql.DB
}

func newTestEnv(t *testing.T, store *memStore) *testEnv {
	t.Helper()
	return newTestEnvAt(t, store, filepath.Join(t.TempDir(), "atlist.db"))
}

// newTestEnvAt starts an App over the local database at dsn, like a new
// process on the same device.
func newTestEnvAt(t *testing.T, store *memStore, dsn string) *testEnv {
	t.Helper()
	color.NoColor = true

	ctx := context.Background()
	db, err := localstore.Open(ctx, dsn)
	require.NoError(t, err)

	fn := &fakeFunctions{}
	a := newApp(deps{
		local:     localstore.NewSQLiteRepository(db),
		rs:        store,
		functions: fn,
		logger:    logging.Nop(),
		closer:    db,
		reader:    bufio.NewReader(strings.NewReader("")),
	})
	require.NoError(t, a.Start(ctx))
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return &testEnv{app: a, store: store, fn: fn, local: db}
}

func (e *testEnv) run(args ...string) (string, error) {
	root, _ := newRootCmd(nil, func(context.Context) (*App, error) { return e.app, nil })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// drain waits for background remote writes.
func (e *testEnv) drain() {
	e.app.profile.Wait()
	e.app.settings.Wait()
	e.app.websites.Wait()
}

func token(t *testing.T, sub string) string {
	t.Helper()
	return tokenExpiringAt(t, sub, time.Now().Add(time.Hour))
}

func tokenExpiringAt(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}
