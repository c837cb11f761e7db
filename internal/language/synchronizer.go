package language

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/neinfra/dpr-dashboard/pkg/i18n"
	"github.com/neinfra/dpr-dashboard/pkg/kvstore"
	"github.com/neinfra/dpr-dashboard/pkg/logger"
	"github.com/neinfra/dpr-dashboard/pkg/pubsub"
)

const (
	// PrimaryKey is the authoritative storage key for the language
	// preference. SecondaryKey and the cookie are caches kept for
	// compatibility; on read they only serve as initialization hints.
	PrimaryKey   = "dprAiLanguage"
	SecondaryKey = "i18nextLng"

	// QueryParam is the URL query parameter carrying an explicit language
	// choice. It has the highest read priority on initialization.
	QueryParam = "lang"

	// BroadcastSubject is the bus subject language changes are published
	// on, so every open session converges without a reload.
	BroadcastSubject = "language.changed"
)

// ErrUnsupportedLanguage rejects codes outside the supported set.
var ErrUnsupportedLanguage = errors.New("language: unsupported language code")

// Config carries the synchronizer settings.
type Config struct {
	Default      string
	CookieName   string
	CookieMaxAge int // seconds
	ReloadDelay  time.Duration
}

// DefaultConfig mirrors the shipped dashboard behavior: English default,
// one-year cookie, 800ms before the forced reload.
func DefaultConfig() Config {
	return Config{
		Default:      i18n.DefaultLang,
		CookieName:   "i18next",
		CookieMaxAge: 60 * 60 * 24 * 365,
		ReloadDelay:  800 * time.Millisecond,
	}
}

// Hints are the per-session read-only inputs consulted during
// initialization.
type Hints struct {
	// Query is the value of the lang URL query parameter, if present.
	Query string
	// Navigator is the browser-reported language tag (possibly with a
	// region suffix).
	Navigator string
}

// Attributes are the document-level attributes kept in lockstep with the
// active language.
type Attributes struct {
	Lang string
	Dir  string
}

// Synchronizer keeps one session's language consistent across the
// authoritative store key, the cache locations (secondary key, cookie),
// the runtime engine and the document attributes — and converged with
// other sessions through the broadcast bus.
type Synchronizer struct {
	store   kvstore.Store
	cookies CookieJar
	engine  Engine
	bus     pubsub.Bus
	cfg     Config

	reload func(lang string)
	toast  func(title, body string)

	mu            sync.Mutex
	attrs         Attributes
	pendingReload *time.Timer
	cleanup       []func()
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithReload sets the callback invoked (after the configured delay) to
// force a full re-render with the language embedded as a query value.
func WithReload(fn func(lang string)) Option {
	return func(s *Synchronizer) { s.reload = fn }
}

// WithToast sets the user-feedback callback for explicit language changes.
func WithToast(fn func(title, body string)) Option {
	return func(s *Synchronizer) { s.toast = fn }
}

// New creates a synchronizer and hooks it into the engine's change event
// and the broadcast bus. Call Close to detach.
func New(store kvstore.Store, cookies CookieJar, engine Engine, bus pubsub.Bus, cfg Config, opts ...Option) *Synchronizer {
	if cfg.Default == "" {
		cfg.Default = i18n.DefaultLang
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultConfig().CookieName
	}

	s := &Synchronizer{
		store:   store,
		cookies: cookies,
		engine:  engine,
		bus:     bus,
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Convergence step: whenever the engine's language actually changes —
	// no matter what triggered it — rewrite every storage location and the
	// document attributes so the locations cannot drift apart.
	s.cleanup = append(s.cleanup, engine.OnChange(func(lang string) {
		s.syncAll(context.Background(), lang)
	}))

	if bus != nil {
		unsubscribe, err := bus.Subscribe(BroadcastSubject, func(payload []byte) {
			s.applyBroadcast(string(payload))
		})
		if err != nil {
			logger.Warn("Failed to subscribe to language broadcasts", zap.Error(err))
		} else {
			s.cleanup = append(s.cleanup, unsubscribe)
		}
	}

	return s
}

// Init resolves the active language on session start. Candidates are
// consulted in priority order — query parameter, primary key, secondary
// key, cookie, navigator language — and the first supported value wins,
// falling back to the default. The chosen value is written back to every
// location (self-healing convergence) and applied to the engine and
// document attributes. Initialization never blocks rendering: failures
// degrade to whatever the engine already has.
func (s *Synchronizer) Init(ctx context.Context, hints Hints) string {
	lang := s.resolve(ctx, hints)

	s.syncAll(ctx, lang)
	if err := s.engine.ChangeLanguage(ctx, lang); err != nil {
		logger.Error("Failed to initialize language", zap.String("lang", lang), zap.Error(err))
		return s.engine.Language()
	}

	logger.Info("Language initialized", zap.String("lang", lang))
	return lang
}

func (s *Synchronizer) resolve(ctx context.Context, hints Hints) string {
	candidates := []string{
		hints.Query,
		s.readKey(ctx, PrimaryKey),
		s.readKey(ctx, SecondaryKey),
		s.readCookie(),
		i18n.Normalize(hints.Navigator),
	}

	for _, candidate := range candidates {
		if candidate != "" && i18n.IsSupported(candidate) {
			return candidate
		}
	}
	return s.cfg.Default
}

// Change applies an explicit user language choice: every storage
// location is written immediately, the engine switches, the change is
// broadcast to other sessions, and a full reload is scheduled after a
// short delay to guarantee a consistent re-render. The pending reload is
// cancellable via CancelReload or Close.
func (s *Synchronizer) Change(ctx context.Context, lang string) error {
	if !i18n.IsSupported(lang) {
		return ErrUnsupportedLanguage
	}
	if lang == s.engine.Language() {
		return nil
	}

	s.syncAll(ctx, lang)
	if err := s.engine.ChangeLanguage(ctx, lang); err != nil {
		if s.toast != nil {
			s.toast(
				i18n.Translate("language.change.failed.title", s.engine.Language()),
				i18n.Translate("language.change.failed.body", s.engine.Language()),
			)
		}
		return err
	}

	if s.toast != nil {
		s.toast(
			i18n.Translate("language.changed.title", lang),
			i18n.Translate("language.changed.body", lang, i18n.Name(lang)),
		)
	}

	if s.bus != nil {
		if err := s.bus.Publish(ctx, BroadcastSubject, []byte(lang)); err != nil {
			logger.Warn("Failed to broadcast language change", zap.Error(err))
		}
	}

	s.scheduleReload(lang)
	logger.Info("Language changed", zap.String("lang", lang))
	return nil
}

// Reconcile is the passive convergence check run when the session
// regains focus or becomes visible again: if the stored preference
// differs from the engine and is supported, it is applied silently with
// no reload. This covers another session changing the language while
// this one was inactive.
func (s *Synchronizer) Reconcile(ctx context.Context) {
	stored := s.readKey(ctx, PrimaryKey)
	if stored == "" {
		stored = s.readKey(ctx, SecondaryKey)
	}

	if stored == "" || !i18n.IsSupported(stored) || stored == s.engine.Language() {
		return
	}

	if err := s.engine.ChangeLanguage(ctx, stored); err != nil {
		logger.Warn("Failed to apply stored language", zap.String("lang", stored), zap.Error(err))
		return
	}
	logger.Debug("Applied stored language after focus", zap.String("lang", stored))
}

// CancelReload stops a pending reload, if any. A session that navigates
// away between Change and the delay elapsing will not be yanked through
// a stale reload.
func (s *Synchronizer) CancelReload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingReload != nil {
		s.pendingReload.Stop()
		s.pendingReload = nil
	}
}

// Attributes returns the current document-level language attributes.
func (s *Synchronizer) Attributes() Attributes {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attrs
}

// Close cancels any pending reload and detaches from the engine and bus.
func (s *Synchronizer) Close() {
	s.CancelReload()
	for _, fn := range s.cleanup {
		fn()
	}
	s.cleanup = nil
}

func (s *Synchronizer) applyBroadcast(lang string) {
	if !i18n.IsSupported(lang) || lang == s.engine.Language() {
		return
	}
	if err := s.engine.ChangeLanguage(context.Background(), lang); err != nil {
		logger.Warn("Failed to apply broadcast language", zap.String("lang", lang), zap.Error(err))
	}
}

// syncAll writes lang to every storage location and the document
// attributes. Errors are logged, never propagated: the worst case is a
// stale cache, not a blocked render.
func (s *Synchronizer) syncAll(ctx context.Context, lang string) {
	if !i18n.IsSupported(lang) {
		return
	}

	for _, key := range []string{PrimaryKey, SecondaryKey} {
		if _, err := s.store.Put(ctx, key, []byte(lang), kvstore.VersionAny); err != nil {
			logger.Warn("Failed to persist language preference",
				zap.String("key", key),
				zap.Error(err))
		}
	}
	if s.cookies != nil {
		s.cookies.Set(s.cfg.CookieName, lang, "/", s.cfg.CookieMaxAge)
	}

	s.mu.Lock()
	s.attrs = Attributes{Lang: lang, Dir: i18n.Direction(lang)}
	s.mu.Unlock()
}

func (s *Synchronizer) scheduleReload(lang string) {
	if s.reload == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingReload != nil {
		s.pendingReload.Stop()
	}
	s.pendingReload = time.AfterFunc(s.cfg.ReloadDelay, func() {
		s.reload(lang)
	})
}

func (s *Synchronizer) readKey(ctx context.Context, key string) string {
	entry, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			logger.Warn("Failed to read language preference", zap.String("key", key), zap.Error(err))
		}
		return ""
	}
	return string(entry.Value)
}

func (s *Synchronizer) readCookie() string {
	if s.cookies == nil {
		return ""
	}
	value, _ := s.cookies.Get(s.cfg.CookieName)
	return value
}
