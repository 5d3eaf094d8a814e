package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const oauthRecordKey = "claudeAiOauth"

// CredentialSource reads the Claude Code OAuth record. Nothing is cached:
// every call goes back to disk so edits apply on the next poll.
type CredentialSource struct {
	path     string
	keychain keychainReader
	getenv   func(string) string
}

// NewCredentialSource reads from path, or from the default location when empty.
func NewCredentialSource(path string) *CredentialSource {
	if path == "" {
		path = defaultCredentialsPath()
	}
	return &CredentialSource{
		path:     path,
		keychain: defaultKeychain(),
		getenv:   os.Getenv,
	}
}

// defaultCredentialsPath is ~/.claude/.credentials.json on every OS.
func defaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude", ".credentials.json")
}

// Path returns the credential file location.
func (s *CredentialSource) Path() string {
	return s.path
}

// Load returns the current credential, or nil when none is usable.
// Failures are logged and treated the same as a missing file.
func (s *CredentialSource) Load() *Credential {
	if s.getenv != nil {
		if tok := s.getenv("CLAUDE_OAUTH_TOKEN"); tok != "" {
			return &Credential{AccessToken: tok}
		}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).Warn("error reading credentials")
			return nil
		}
		if s.keychain == nil {
			return nil
		}
		if data, err = s.keychain(); err != nil {
			log.WithError(err).Debug("keychain lookup failed")
			return nil
		}
	}
	return parseCredential(data)
}

// HasValid reports whether a token is present. Expiry is left to the server.
func (s *CredentialSource) HasValid() bool {
	c := s.Load()
	return c != nil && c.AccessToken != ""
}

func parseCredential(data []byte) *Credential {
	if !gjson.ValidBytes(data) {
		log.Warn("error reading credentials: invalid JSON")
		return nil
	}
	rec := gjson.GetBytes(data, oauthRecordKey)
	if !rec.Exists() || !rec.IsObject() {
		return nil
	}
	var entry oauthEntry
	if err := json.Unmarshal([]byte(rec.Raw), &entry); err != nil {
		log.WithError(err).Warn("error reading credentials")
		return nil
	}
	if entry.AccessToken == "" {
		return nil
	}
	return entry.credential()
}
