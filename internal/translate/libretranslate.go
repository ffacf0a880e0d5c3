package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agrigenius/core/internal/errx"
)

// LibreTranslate is a plain-JSON translation backend with no authentication.
type LibreTranslate struct {
	name    string
	baseURL string
	client  *http.Client
	timeout time.Duration
}

func NewLibreTranslate(client *http.Client, baseURL string, timeout time.Duration) *LibreTranslate {
	if baseURL == "" {
		baseURL = "https://libretranslate.com"
	}
	return &LibreTranslate{
		name:    "libretranslate",
		baseURL: baseURL,
		client:  client,
		timeout: timeout,
	}
}

func (l *LibreTranslate) Name() string {
	return l.name
}

func (l *LibreTranslate) Translate(ctx context.Context, text, from, to string) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	body, err := json.Marshal(map[string]string{
		"q":      text,
		"source": from,
		"target": to,
		"format": "text",
	})
	if err != nil {
		return "", errx.Translation(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", errx.Translation(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", errx.Translation(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Error().Int("status", resp.StatusCode).
			Str("backend", l.name).
			Str("body", strings.TrimSpace(string(excerpt))).
			Msg("translation request failed")
		return "", errx.Translation(fmt.Errorf("status %d", resp.StatusCode))
	}

	var payload struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", errx.Translation(err)
	}
	if payload.TranslatedText == "" {
		// The upstream occasionally answers 200 with an empty body; hand the
		// original text back rather than an empty answer.
		return text, nil
	}

	return payload.TranslatedText, nil
}
