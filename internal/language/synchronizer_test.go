package language

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neinfra/dpr-dashboard/pkg/kvstore"
	"github.com/neinfra/dpr-dashboard/pkg/pubsub"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ReloadDelay = 20 * time.Millisecond
	return cfg
}

type fixture struct {
	store   *kvstore.Memory
	cookies *MemoryCookieJar
	engine  *RuntimeEngine
	bus     *pubsub.MemoryBus
	reloads chan string
	sync    *Synchronizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:   kvstore.NewMemory(),
		cookies: NewMemoryCookieJar(),
		engine:  NewRuntimeEngine(),
		bus:     pubsub.NewMemoryBus(),
		reloads: make(chan string, 1),
	}
	f.sync = New(f.store, f.cookies, f.engine, f.bus, testConfig(),
		WithReload(func(lang string) { f.reloads <- lang }))
	t.Cleanup(f.sync.Close)
	return f
}

func (f *fixture) storedValue(t *testing.T, key string) string {
	t.Helper()
	entry, err := f.store.Get(context.Background(), key)
	require.NoError(t, err)
	return string(entry.Value)
}

func (f *fixture) expectNoReload(t *testing.T) {
	t.Helper()
	select {
	case lang := <-f.reloads:
		t.Fatalf("unexpected reload with lang %q", lang)
	case <-time.After(80 * time.Millisecond):
	}
}

func (f *fixture) expectReload(t *testing.T) string {
	t.Helper()
	select {
	case lang := <-f.reloads:
		return lang
	case <-time.After(500 * time.Millisecond):
		t.Fatal("reload callback never fired")
		return ""
	}
}

// ---------------------------------------------------------------------------
// Init
// ---------------------------------------------------------------------------

func TestInit_QueryBeatsStoredValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.Put(ctx, PrimaryKey, []byte("en"), kvstore.VersionAny)
	require.NoError(t, err)

	lang := f.sync.Init(ctx, Hints{Query: "hi"})

	assert.Equal(t, "hi", lang)
	assert.Equal(t, "hi", f.engine.Language())

	// Self-healing convergence: every location now holds the winner.
	assert.Equal(t, "hi", f.storedValue(t, PrimaryKey))
	assert.Equal(t, "hi", f.storedValue(t, SecondaryKey))
	cookie, ok := f.cookies.Get("i18next")
	require.True(t, ok)
	assert.Equal(t, "hi", cookie)
	assert.Equal(t, Attributes{Lang: "hi", Dir: "ltr"}, f.sync.Attributes())
}

func TestInit_FallsBackToDefault(t *testing.T) {
	f := newFixture(t)

	lang := f.sync.Init(context.Background(), Hints{Navigator: "de-DE"})

	assert.Equal(t, "en", lang)
	assert.Equal(t, "en", f.engine.Language())
	assert.Equal(t, "en", f.storedValue(t, PrimaryKey))
}

func TestInit_StoredPrimaryWinsWithoutQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.Put(ctx, PrimaryKey, []byte("as"), kvstore.VersionAny)
	require.NoError(t, err)

	lang := f.sync.Init(ctx, Hints{})

	assert.Equal(t, "as", lang)
}

func TestInit_SkipsUnsupportedCandidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.Put(ctx, PrimaryKey, []byte("xx"), kvstore.VersionAny)
	require.NoError(t, err)
	_, err = f.store.Put(ctx, SecondaryKey, []byte("hi"), kvstore.VersionAny)
	require.NoError(t, err)

	lang := f.sync.Init(ctx, Hints{Query: "fr"})

	assert.Equal(t, "hi", lang)
}

func TestInit_NavigatorRegionSuffixIsNormalized(t *testing.T) {
	f := newFixture(t)

	lang := f.sync.Init(context.Background(), Hints{Navigator: "hi-IN"})

	assert.Equal(t, "hi", lang)
}

func TestInit_CookieHintUsed(t *testing.T) {
	f := newFixture(t)
	f.cookies.Set("i18next", "as", "/", 60)

	lang := f.sync.Init(context.Background(), Hints{})

	assert.Equal(t, "as", lang)
}

// ---------------------------------------------------------------------------
// Change
// ---------------------------------------------------------------------------

func TestChange_WritesAllLocationsAndSchedulesReload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync.Init(ctx, Hints{})

	require.NoError(t, f.sync.Change(ctx, "hi"))

	assert.Equal(t, "hi", f.engine.Language())
	assert.Equal(t, "hi", f.storedValue(t, PrimaryKey))
	assert.Equal(t, "hi", f.storedValue(t, SecondaryKey))
	cookie, _ := f.cookies.Get("i18next")
	assert.Equal(t, "hi", cookie)

	assert.Equal(t, "hi", f.expectReload(t))
}

func TestChange_UnsupportedLanguageRejected(t *testing.T) {
	f := newFixture(t)

	err := f.sync.Change(context.Background(), "fr")

	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	f.expectNoReload(t)
}

func TestChange_SameLanguageIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.sync.Init(context.Background(), Hints{})

	require.NoError(t, f.sync.Change(context.Background(), "en"))

	f.expectNoReload(t)
}

func TestChange_CancelStopsPendingReload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync.Init(ctx, Hints{})

	require.NoError(t, f.sync.Change(ctx, "hi"))
	f.sync.CancelReload()

	f.expectNoReload(t)
	// The change itself still applied everywhere.
	assert.Equal(t, "hi", f.engine.Language())
	assert.Equal(t, "hi", f.storedValue(t, PrimaryKey))
}

func TestChange_ShowsToast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var title, body string
	f.sync.toast = func(tt, bb string) { title, body = tt, bb }

	require.NoError(t, f.sync.Change(ctx, "hi"))

	assert.Equal(t, "भाषा बदल दी गई", title)
	assert.NotEmpty(t, body)
}

// ---------------------------------------------------------------------------
// Reconcile / convergence
// ---------------------------------------------------------------------------

func TestReconcile_AppliesStoredLanguageSilently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync.Init(ctx, Hints{})

	// Another session changed the preference while we were inactive.
	_, err := f.store.Put(ctx, PrimaryKey, []byte("as"), kvstore.VersionAny)
	require.NoError(t, err)

	f.sync.Reconcile(ctx)

	assert.Equal(t, "as", f.engine.Language())
	f.expectNoReload(t)
}

func TestReconcile_IgnoresUnsupportedStoredValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync.Init(ctx, Hints{})

	_, err := f.store.Put(ctx, PrimaryKey, []byte("zz"), kvstore.VersionAny)
	require.NoError(t, err)

	f.sync.Reconcile(ctx)

	assert.Equal(t, "en", f.engine.Language())
}

func TestEngineChange_RewritesAllLocations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync.Init(ctx, Hints{})

	// The engine changes outside the synchronizer's own operations; the
	// change-event hook must still converge every location.
	require.NoError(t, f.engine.ChangeLanguage(ctx, "as"))

	assert.Equal(t, "as", f.storedValue(t, PrimaryKey))
	assert.Equal(t, "as", f.storedValue(t, SecondaryKey))
	cookie, _ := f.cookies.Get("i18next")
	assert.Equal(t, "as", cookie)
	assert.Equal(t, Attributes{Lang: "as", Dir: "ltr"}, f.sync.Attributes())
}

func TestBroadcast_SecondSessionConvergesWithoutReload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync.Init(ctx, Hints{})

	// A second session sharing the same store and bus.
	otherEngine := NewRuntimeEngine()
	otherReloads := make(chan string, 1)
	other := New(f.store, NewMemoryCookieJar(), otherEngine, f.bus, testConfig(),
		WithReload(func(lang string) { otherReloads <- lang }))
	defer other.Close()
	other.Init(ctx, Hints{})

	require.NoError(t, f.sync.Change(ctx, "hi"))

	assert.Equal(t, "hi", otherEngine.Language())
	select {
	case <-otherReloads:
		t.Fatal("subscriber session must converge without a reload")
	case <-time.After(80 * time.Millisecond):
	}
}
