package export

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/AngelCh415/mediaplan-go/internal/ingest"
	"github.com/AngelCh415/mediaplan-go/internal/models"
	"github.com/AngelCh415/mediaplan-go/internal/utils"
)

var ErrSinkNotConfigured = errors.New("sink not configured")

const SignatureHeader = "X-Signature"

// Sink delivers computed dashboards to an external endpoint, signing the
// body with HMAC-SHA256 so the receiver can verify it.
type Sink struct {
	c      ingest.HTTPClient
	url    string
	secret string
	retry  utils.Backoff
	log    *slog.Logger
}

func NewSink(c ingest.HTTPClient, url, secret string, log *slog.Logger) *Sink {
	return &Sink{
		c:      c,
		url:    url,
		secret: secret,
		retry:  utils.NewBackoff(200*time.Millisecond, 2).WithJitter(100 * time.Millisecond),
		log:    log,
	}
}

func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Send posts d to the sink. 5xx and transport errors are retried.
func (s *Sink) Send(ctx context.Context, d models.Dashboard) error {
	if s.url == "" || s.secret == "" {
		return ErrSinkNotConfigured
	}
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	sig := Sign(s.secret, b)
	return s.retry.Do(ctx, func(i int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(b))
		if err != nil {
			return utils.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(SignatureHeader, sig)
		resp, err := s.c.Do(req)
		if err != nil {
			s.log.Warn("export attempt failed", slog.Int("attempt", i+1), slog.String("err", err.Error()))
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		err = fmt.Errorf("export sink non-2xx: %d", resp.StatusCode)
		if resp.StatusCode < 500 {
			return utils.Permanent(err)
		}
		return err
	})
}
