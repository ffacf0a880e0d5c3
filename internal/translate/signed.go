package translate

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/agrigenius/core/internal/errx"
)

// SignedGateway is a translation backend for self-hosted gateways that
// require request signing: an HMAC-SHA256 over app-id and timestamp, with the
// payload text base64-encoded on the wire in both directions.
type SignedGateway struct {
	name     string
	endpoint string
	appID    string
	secret   string
	client   *http.Client
	timeout  time.Duration
	now      func() time.Time
}

func NewSignedGateway(client *http.Client, endpoint, appID, secret string, timeout time.Duration) *SignedGateway {
	return &SignedGateway{
		name:     "signed-gateway",
		endpoint: endpoint,
		appID:    appID,
		secret:   secret,
		client:   client,
		timeout:  timeout,
		now:      time.Now,
	}
}

func (g *SignedGateway) Name() string {
	return g.name
}

// SetClock overrides the signing clock. Used by tests.
func (g *SignedGateway) SetClock(now func() time.Time) {
	g.now = now
}

// sign produces the hex HMAC-SHA256 of appID+timestamp under the shared secret.
func (g *SignedGateway) sign(timestamp string) string {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write([]byte(g.appID + timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *SignedGateway) Translate(ctx context.Context, text, from, to string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	timestamp := strconv.FormatInt(g.now().Unix(), 10)

	body, err := json.Marshal(map[string]string{
		"text": base64.StdEncoding.EncodeToString([]byte(text)),
		"from": from,
		"to":   to,
	})
	if err != nil {
		return "", errx.Translation(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errx.Translation(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-App-Id", g.appID)
	req.Header.Set("X-Timestamp", timestamp)
	req.Header.Set("X-Signature", g.sign(timestamp))

	resp, err := g.client.Do(req)
	if err != nil {
		return "", errx.Translation(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errx.Translation(fmt.Errorf("status %d", resp.StatusCode))
	}

	var payload struct {
		TranslatedText string `json:"translated_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", errx.Translation(err)
	}

	decoded, err := base64.StdEncoding.DecodeString(payload.TranslatedText)
	if err != nil {
		return "", errx.Translation(fmt.Errorf("malformed payload: %w", err))
	}

	return string(decoded), nil
}
