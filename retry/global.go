package retry

import (
	"log"
	"sync"
)

var (
	globalTemplate *Template
	globalOnce     sync.Once
)

// DefaultTemplate returns the shared, lazily-initialized default Template.
// Absent a call to SetGlobal it falls back to the package-level defaultPolicy
// (three attempts, no back-off) — callers that want retrypolicy's richer
// policies must build their own Template or call SetGlobal at startup.
func DefaultTemplate() *Template {
	globalOnce.Do(func() {
		if globalTemplate == nil {
			globalTemplate = &Template{}
		}
	})
	return globalTemplate
}

// SetGlobal installs tmpl as the default Template. It must be called before
// DefaultTemplate is first used; calling it afterward logs a warning and has
// no effect, matching the source's startup-time-only configuration contract.
func SetGlobal(tmpl *Template) {
	if tmpl == nil {
		return
	}
	if globalTemplate != nil {
		log.Printf("retry: SetGlobal called after global template already initialized; ignoring")
		return
	}
	globalOnce.Do(func() {
		globalTemplate = tmpl
	})
}
