package diagnosis

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"medical-intake-agent/internal/config"
)

// Defaults sent when the interview did not establish the patient's
// demographics; the upstream API rejects null values.
const (
	defaultAge    = 25
	defaultGender = "unknown"
)

// Client queries the external symptom-to-condition API. The lookup is
// advisory: every failure mode collapses to an absent result and the caller
// proceeds without it.
type Client struct {
	apiKey     string
	url        string
	host       string
	httpClient *http.Client
}

// NewClient creates a new diagnosis lookup client.
func NewClient(cfg config.DiagnosisConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	host := ""
	if u, err := url.Parse(cfg.URL); err == nil {
		host = u.Host
	}
	return &Client{
		apiKey: cfg.APIKey,
		url:    cfg.URL,
		host:   host,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type lookupRequest struct {
	Symptoms       []string `json:"symptoms"`
	Age            int      `json:"age"`
	Gender         string   `json:"gender"`
	MedicalHistory []string `json:"medical_history"`
}

// Lookup returns the raw diagnosis payload for the given symptoms, or false
// when no result is available. No call is made for an empty symptom list or
// when no API key is configured.
func (c *Client) Lookup(ctx context.Context, symptoms []string, age *int, gender *string, history []string) (json.RawMessage, bool) {
	if len(symptoms) == 0 {
		return nil, false
	}
	if c.apiKey == "" {
		log.Debug().Msg("diagnosis lookup skipped: no api key configured")
		return nil, false
	}

	payload := lookupRequest{
		Symptoms:       symptoms,
		Age:            defaultAge,
		Gender:         defaultGender,
		MedicalHistory: history,
	}
	if age != nil {
		payload.Age = *age
	}
	if gender != nil {
		payload.Gender = *gender
	}
	if payload.MedicalHistory == nil {
		payload.MedicalHistory = []string{}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Msg("diagnosis lookup failed")
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Debug().Int("status", resp.StatusCode).Msg("diagnosis lookup rejected")
		return nil, false
	}

	var result json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, false
	}
	return result, true
}
