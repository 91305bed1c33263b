package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	consentFile = "cookie_consent"
	cookiesFile = "cookies.json"
	tokenFile   = "token"

	credentialCookieName = "access_token"
)

// Store resolves the Supmap bearer credential from the state
// directory. A persisted consent flag selects the cookie jar as the
// credential source; without consent the credential lives in a plain
// token file. Absence is not an error: callers treat a missing
// credential as "unauthenticated".
type Store struct {
	dir string
}

type cookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Domain  string    `json:"domain,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

func NewStore(dir string) (*Store, error) {
	err := os.MkdirAll(dir, 0700)
	if err != nil {
		return nil, fmt.Errorf("failed to create session state directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Token returns the bearer credential, or false when no usable
// credential is stored.
func (s *Store) Token() (string, bool) {
	var raw string
	if s.CookieConsent() {
		raw = s.tokenFromCookieJar()
	} else {
		raw = s.tokenFromFile()
	}
	if raw == "" {
		return "", false
	}
	if expired(raw) {
		return "", false
	}
	return raw, true
}

func (s *Store) Authenticated() bool {
	_, ok := s.Token()
	return ok
}

func (s *Store) CookieConsent() bool {
	data, err := os.ReadFile(filepath.Join(s.dir, consentFile))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "true"
}

func (s *Store) SetCookieConsent(consent bool) error {
	val := "false"
	if consent {
		val = "true"
	}
	err := os.WriteFile(filepath.Join(s.dir, consentFile), []byte(val), 0600)
	if err != nil {
		return fmt.Errorf("failed to write consent flag: %w", err)
	}
	return nil
}

// SaveToken persists the credential in the location the consent flag
// selects, so a later Token call finds it again.
func (s *Store) SaveToken(token string) error {
	if s.CookieConsent() {
		jar := []cookie{{Name: credentialCookieName, Value: token}}
		data, err := json.Marshal(jar)
		if err != nil {
			return fmt.Errorf("failed to marshal cookie jar: %w", err)
		}
		err = os.WriteFile(filepath.Join(s.dir, cookiesFile), data, 0600)
		if err != nil {
			return fmt.Errorf("failed to write cookie jar: %w", err)
		}
		return nil
	}
	err := os.WriteFile(filepath.Join(s.dir, tokenFile), []byte(token), 0600)
	if err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (s *Store) ClearToken() error {
	var errs []error
	for _, name := range []string{cookiesFile, tokenFile} {
		err := os.Remove(filepath.Join(s.dir, name))
		if err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to clear credential: %v", errs)
	}
	return nil
}

func (s *Store) tokenFromCookieJar() string {
	data, err := os.ReadFile(filepath.Join(s.dir, cookiesFile))
	if err != nil {
		return ""
	}
	var jar []cookie
	if err := json.Unmarshal(data, &jar); err != nil {
		slog.Warn("Unreadable cookie jar", "error", err.Error())
		return ""
	}
	for _, c := range jar {
		if c.Name != credentialCookieName {
			continue
		}
		if !c.Expires.IsZero() && c.Expires.Before(time.Now()) {
			return ""
		}
		return c.Value
	}
	return ""
}

func (s *Store) tokenFromFile() string {
	data, err := os.ReadFile(filepath.Join(s.dir, tokenFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// expired checks the exp claim without verifying the signature; the
// backend is the authority on validity, this only avoids sending a
// credential that is already known to be dead.
func expired(token string) bool {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		// Opaque tokens pass through untouched
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
