package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ecotone-geo/landprep/internal/config"
	"github.com/ecotone-geo/landprep/internal/resilience"
)

// Client fetches Overpass extracts. Requests are rate limited; the public
// Overpass instances block clients that hammer them.
type Client struct {
	http        *http.Client
	url         string
	limiter     *rate.Limiter
	retry       resilience.Policy
	maxSize     int64
	timeoutSecs int
}

func NewClient(cfg config.OSMConfig) *Client {
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 0.5
	}
	timeoutSecs := cfg.TimeoutSecs
	if timeoutSecs <= 0 {
		timeoutSecs = 9000
	}
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = 1 << 30
	}
	return &Client{
		// the server holds the connection open until the query-level
		// timeout, so the transport waits at least as long
		http:        &http.Client{Timeout: time.Duration(timeoutSecs+60) * time.Second},
		url:         cfg.OverpassURL,
		limiter:     rate.NewLimiter(rate.Limit(perSec), 1),
		retry:       resilience.DefaultPolicy(),
		maxSize:     maxSize,
		timeoutSecs: timeoutSecs,
	}
}

// Fetch runs one Overpass query and writes the raw JSON response to
// "<theme>_<year>.json" under outDir. The raw element payload is kept
// as is so osmtogeojson can assemble geometries from it later.
func (c *Client) Fetch(ctx context.Context, theme string, year int, query, outDir string) (string, error) {
	start := time.Now()
	body, err := resilience.DoVal(ctx, c.retry, "overpass "+theme, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "osm: rate limiter")
		}

		params := url.Values{"data": {query}}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+params.Encode(), nil)
		if err != nil {
			return nil, eris.Wrap(err, "osm: build overpass request")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrapf(err, "osm: fetch %s %d", theme, year)
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrapf(err, "osm: read overpass response for %s", theme)
		}
		if resp.StatusCode != http.StatusOK {
			reason := eris.Errorf("osm: overpass returned %d for %s %d: %s",
				resp.StatusCode, theme, year, strings.TrimSpace(string(body)))
			if resilience.IsTransientStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(reason, resp.StatusCode)
			}
			return nil, reason
		}
		return body, nil
	})
	if err != nil {
		return "", err
	}

	var payload struct {
		Elements []json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", eris.Wrapf(err, "osm: decode overpass response for %s", theme)
	}
	zap.L().Info("fetched overpass extract",
		zap.String("theme", theme),
		zap.Int("year", year),
		zap.Int("elements", len(payload.Elements)),
		zap.Duration("took", time.Since(start)),
	)

	out := filepath.Join(outDir, rawName(theme, year))
	if err := os.WriteFile(out, body, 0o644); err != nil {
		return "", eris.Wrapf(err, "osm: write %s", out)
	}
	return out, nil
}

// FetchAll fetches every theme for a year. A theme that fails is logged and
// skipped; the extracts that were written are returned.
func (c *Client) FetchAll(ctx context.Context, year int, bbox, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "osm: create %s", outDir)
	}

	var written []string
	for _, theme := range Themes() {
		query, err := Query(theme, year, bbox, c.maxSize, c.timeoutSecs)
		if err != nil {
			return written, err
		}
		out, err := c.Fetch(ctx, theme, year, query, outDir)
		if err != nil {
			zap.L().Error("overpass fetch failed", zap.String("theme", theme), zap.Error(err))
			continue
		}
		written = append(written, out)
	}
	if len(written) == 0 {
		return nil, eris.Errorf("osm: no overpass extracts fetched for %d", year)
	}
	return written, nil
}

func rawName(theme string, year int) string {
	return fmt.Sprintf("%s_%d.json", theme, year)
}
