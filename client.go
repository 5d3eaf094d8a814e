package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultUserAgent = "ccgauge/1.0"
	usagePath        = "/api/oauth/usage"
	oauthBeta        = "oauth-2025-04-20"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

// credentialLoader is the part of CredentialSource the rest of the app needs.
type credentialLoader interface {
	Load() *Credential
	HasValid() bool
}

// UsageClient performs single, unretried requests against the usage endpoint.
type UsageClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	creds     credentialLoader
}

func NewUsageClient(baseURL, userAgent string, creds credentialLoader) *UsageClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &UsageClient{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
		http:      httpClient,
		creds:     creds,
	}
}

// Fetch never fails: every error collapses into an unauthenticated reading.
func (c *UsageClient) Fetch(ctx context.Context, token string) UsageReading {
	usage, err := c.fetchUsage(ctx, token)
	if err != nil {
		return failedReading(err.Error())
	}

	reading := UsageReading{IsAuthenticated: true}
	if usage.FiveHour != nil {
		reading.FiveHourUsage = usage.FiveHour.Utilization
		reading.FiveHourResetsAt = parseResetTime(usage.FiveHour.ResetsAt)
	}
	if usage.SevenDay != nil {
		reading.SevenDayUsage = usage.SevenDay.Utilization
		reading.SevenDayResetsAt = parseResetTime(usage.SevenDay.ResetsAt)
	}
	if c.creds != nil {
		if cred := c.creds.Load(); cred != nil {
			reading.SubscriptionType = cred.SubscriptionType
			reading.RateLimitTier = cred.RateLimitTier
		}
	}
	return reading
}

func (c *UsageClient) fetchUsage(ctx context.Context, token string) (*UsageResponse, error) {
	if token == "" {
		return nil, &FetchError{Kind: ErrNoCredentials}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+usagePath, nil)
	if err != nil {
		return nil, &FetchError{Kind: ErrTransport, Err: err}
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("anthropic-beta", oauthBeta)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: ErrTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &FetchError{Kind: ErrAuthInvalid, StatusCode: resp.StatusCode}
	}

	const maxUsageResponseBytes = 1 << 20 // 1 MiB
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUsageResponseBytes+1))
	if err != nil {
		return nil, &FetchError{Kind: ErrTransport, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Debugf("usage API status=%d body=%s", resp.StatusCode, summarize(body))
		return nil, &FetchError{Kind: ErrServer, StatusCode: resp.StatusCode}
	}
	if len(body) > maxUsageResponseBytes {
		return nil, &FetchError{Kind: ErrParse, Err: errors.New("API response too large")}
	}

	var usage UsageResponse
	if err := json.Unmarshal(body, &usage); err != nil {
		return nil, &FetchError{Kind: ErrParse, Err: err}
	}

	return &usage, nil
}

func parseResetTime(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		log.WithError(err).Debugf("ignoring resets_at %q", *s)
		return nil
	}
	return &t
}

func summarize(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
