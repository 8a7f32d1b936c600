package ingest

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"path"
	"time"

	"github.com/AngelCh415/mediaplan-go/internal/models"
	"github.com/AngelCh415/mediaplan-go/internal/utils"
)

var ErrSourceNotConfigured = errors.New("plan source not configured")

// Puller loads a media plan from a remote URL (a shared drive export, an
// object store link) instead of an upload.
type Puller struct {
	c     HTTPClient
	url   string
	limit int64
	retry utils.Backoff
	log   *slog.Logger
}

func NewPuller(c HTTPClient, url string, limit int64, log *slog.Logger) *Puller {
	return &Puller{
		c:     c,
		url:   url,
		limit: limit,
		retry: utils.NewBackoff(100*time.Millisecond, 2).WithJitter(150 * time.Millisecond),
		log:   log,
	}
}

func (p *Puller) Source() string { return p.url }

// Pull fetches the configured source with retries and parses it. Transport
// errors and 5xx are retried; 4xx, oversize bodies and validation errors are not.
func (p *Puller) Pull(ctx context.Context) ([]models.Record, error) {
	if p.url == "" {
		return nil, ErrSourceNotConfigured
	}
	var (
		body []byte
		ct   string
	)
	err := p.retry.Do(ctx, func(i int) error {
		b, t, err := fetch(ctx, p.c, p.url, p.limit)
		if err != nil {
			var se *StatusError
			if errors.Is(err, ErrTooLarge) || (errors.As(err, &se) && se.Code < 500) {
				return utils.Permanent(err)
			}
			p.log.Warn("pull attempt failed", slog.Int("attempt", i+1), slog.String("err", err.Error()))
			return err
		}
		body, ct = b, t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Parse(body, ct, fileName(p.url))
}

func fileName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return path.Base(u.Path)
}
