package main

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func testCredentialSource(t *testing.T, content string) *CredentialSource {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".credentials.json")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("write credentials: %v", err)
		}
	}
	return &CredentialSource{path: path, getenv: func(string) string { return "" }}
}

func TestCredentialSource_MissingFile(t *testing.T) {
	src := testCredentialSource(t, "")

	if c := src.Load(); c != nil {
		t.Fatalf("expected nil credential, got %+v", c)
	}
	if src.HasValid() {
		t.Error("expected HasValid to be false without a credentials file")
	}
}

func TestCredentialSource_IgnoresExpiry(t *testing.T) {
	expired := time.Now().Add(-48 * time.Hour).UnixMilli()
	src := testCredentialSource(t, `{"claudeAiOauth":{"accessToken":"tok","expiresAt":`+strconv.FormatInt(expired, 10)+`}}`)

	if !src.HasValid() {
		t.Fatal("expected HasValid to be true for an expired token")
	}
	c := src.Load()
	if c.ExpiresAt == nil || c.ExpiresAt.UnixMilli() != expired {
		t.Errorf("expiresAt not parsed: %v", c.ExpiresAt)
	}
	if !c.Expired(time.Now()) {
		t.Error("expected Expired to report true")
	}
}

func TestCredentialSource_Load(t *testing.T) {
	src := testCredentialSource(t, `{
		"claudeAiOauth": {
			"accessToken": "sk-ant-oat01",
			"refreshToken": "sk-ant-ort01",
			"scopes": ["user:inference", "user:profile"],
			"subscriptionType": "max",
			"rateLimitTier": "default_claude_max_5x"
		}
	}`)

	c := src.Load()
	if c == nil {
		t.Fatal("expected a credential")
	}
	if c.AccessToken != "sk-ant-oat01" || c.RefreshToken != "sk-ant-ort01" {
		t.Errorf("unexpected tokens: %+v", c)
	}
	if c.SubscriptionType != "max" || c.RateLimitTier != "default_claude_max_5x" {
		t.Errorf("unexpected subscription metadata: %+v", c)
	}
	if len(c.Scopes) != 2 {
		t.Errorf("expected 2 scopes, got %v", c.Scopes)
	}
	if c.ExpiresAt != nil {
		t.Errorf("expected no expiry, got %v", c.ExpiresAt)
	}
	if c.Expired(time.Now()) {
		t.Error("a credential without expiry must not be expired")
	}
}

func TestCredentialSource_Unusable(t *testing.T) {
	cases := map[string]string{
		"invalid json":   `{"claudeAiOauth":`,
		"missing record": `{"somethingElse":{"accessToken":"x"}}`,
		"record not obj": `{"claudeAiOauth":"tok"}`,
		"empty token":    `{"claudeAiOauth":{"accessToken":""}}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			src := testCredentialSource(t, content)
			if c := src.Load(); c != nil {
				t.Errorf("expected nil, got %+v", c)
			}
			if src.HasValid() {
				t.Error("expected HasValid to be false")
			}
		})
	}
}

func TestCredentialSource_ReadsFreshEachTime(t *testing.T) {
	src := testCredentialSource(t, `{"claudeAiOauth":{"accessToken":"first"}}`)
	if got := src.Load().AccessToken; got != "first" {
		t.Fatalf("expected first, got %q", got)
	}

	if err := os.WriteFile(src.path, []byte(`{"claudeAiOauth":{"accessToken":"second"}}`), 0600); err != nil {
		t.Fatal(err)
	}
	if got := src.Load().AccessToken; got != "second" {
		t.Errorf("expected second after rewrite, got %q", got)
	}
}

func TestCredentialSource_EnvOverride(t *testing.T) {
	src := testCredentialSource(t, "")
	src.getenv = func(k string) string {
		if k == "CLAUDE_OAUTH_TOKEN" {
			return "from-env"
		}
		return ""
	}
	c := src.Load()
	if c == nil || c.AccessToken != "from-env" {
		t.Fatalf("expected env token, got %+v", c)
	}
}

func TestCredentialSource_KeychainFallback(t *testing.T) {
	src := testCredentialSource(t, "")
	src.keychain = func() ([]byte, error) {
		return []byte(`{"claudeAiOauth":{"accessToken":"from-keychain","subscriptionType":"pro"}}`), nil
	}
	c := src.Load()
	if c == nil || c.AccessToken != "from-keychain" || c.SubscriptionType != "pro" {
		t.Fatalf("expected keychain credential, got %+v", c)
	}
}
