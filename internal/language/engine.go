package language

import (
	"context"
	"fmt"
	"sync"

	"github.com/neinfra/dpr-dashboard/pkg/i18n"
)

// Engine is the runtime i18n engine a session renders with. Changing the
// language fires every registered callback, regardless of what triggered
// the change.
type Engine interface {
	Language() string
	ChangeLanguage(ctx context.Context, lang string) error
	OnChange(fn func(lang string)) (remove func())
}

// RuntimeEngine is the compiled-in Engine implementation over pkg/i18n.
type RuntimeEngine struct {
	mu        sync.Mutex
	lang      string
	nextID    int
	callbacks map[int]func(lang string)
}

// NewRuntimeEngine creates an engine starting at the default language.
func NewRuntimeEngine() *RuntimeEngine {
	return &RuntimeEngine{
		lang:      i18n.DefaultLang,
		callbacks: make(map[int]func(lang string)),
	}
}

// Language returns the currently active language code.
func (e *RuntimeEngine) Language() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lang
}

// ChangeLanguage activates lang and fires the change callbacks. Changing
// to the already-active language is a no-op.
func (e *RuntimeEngine) ChangeLanguage(_ context.Context, lang string) error {
	if !i18n.IsSupported(lang) {
		return fmt.Errorf("language: unsupported language %q", lang)
	}

	e.mu.Lock()
	if e.lang == lang {
		e.mu.Unlock()
		return nil
	}
	e.lang = lang
	callbacks := make([]func(string), 0, len(e.callbacks))
	for _, fn := range e.callbacks {
		callbacks = append(callbacks, fn)
	}
	e.mu.Unlock()

	for _, fn := range callbacks {
		fn(lang)
	}
	return nil
}

// OnChange registers fn to run on every language change.
func (e *RuntimeEngine) OnChange(fn func(lang string)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.callbacks[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.callbacks, id)
	}
}
