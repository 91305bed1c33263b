package maps

import "sync"

// Loader memoizes SDK client construction behind a single shared
// instance. Components receive the loader by injection; there is no
// package-level "is the SDK loaded" state.
type Loader struct {
	apiKey string
	once   sync.Once
	svc    Service
	err    error
}

func NewLoader(apiKey string) *Loader {
	return &Loader{apiKey: apiKey}
}

// Load constructs the SDK client on first call and returns the same
// instance (or the same error) to every caller afterwards.
func (l *Loader) Load() (Service, error) {
	l.once.Do(func() {
		l.svc, l.err = newGoogleService(l.apiKey)
	})
	return l.svc, l.err
}
