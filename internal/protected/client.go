package protected

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ecotone-geo/landprep/internal/config"
	"github.com/ecotone-geo/landprep/internal/resilience"
)

// Client talks to the token-authenticated protected-areas API. Results come
// back paginated per country; each page carries the polygons as embedded
// GeoJSON features.
type Client struct {
	http        *http.Client
	apiURL      string
	token       string
	marine      bool
	perPage     int
	concurrency int
	retry       resilience.Policy
}

func NewClient(cfg config.WDPAConfig) *Client {
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 50
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}
	return &Client{
		http:        &http.Client{Timeout: 2 * time.Minute},
		apiURL:      cfg.APIURL,
		token:       cfg.Token,
		marine:      cfg.Marine,
		perPage:     perPage,
		concurrency: concurrency,
		retry:       resilience.DefaultPolicy(),
	}
}

type searchResponse struct {
	ProtectedAreas []struct {
		GeoJSON json.RawMessage `json:"geojson"`
	} `json:"protected_areas"`
}

// FetchCountry pages through a country's protected areas and writes them as
// one GeoJSON FeatureCollection to "<iso3>.geojson" under outDir.
func (c *Client) FetchCountry(ctx context.Context, iso3, outDir string) (string, error) {
	var features []json.RawMessage
	for page := 1; ; page++ {
		batch, err := c.fetchPage(ctx, iso3, page)
		if err != nil {
			return "", err
		}
		features = append(features, batch...)
		if len(batch) < c.perPage {
			break
		}
	}
	zap.L().Info("fetched protected areas", zap.String("country", iso3), zap.Int("features", len(features)))

	out := filepath.Join(outDir, iso3+".geojson")
	payload, err := json.Marshal(struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}{Type: "FeatureCollection", Features: features})
	if err != nil {
		return "", eris.Wrapf(err, "protected: encode features for %s", iso3)
	}
	if err := os.WriteFile(out, payload, 0o644); err != nil {
		return "", eris.Wrapf(err, "protected: write %s", out)
	}
	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, iso3 string, page int) ([]json.RawMessage, error) {
	body, err := resilience.DoVal(ctx, c.retry, "protected-areas "+iso3, func(ctx context.Context) ([]byte, error) {
		params := url.Values{
			"token":         {c.token},
			"country":       {iso3},
			"marine":        {strconv.FormatBool(c.marine)},
			"with_geometry": {"true"},
			"per_page":      {strconv.Itoa(c.perPage)},
			"page":          {strconv.Itoa(page)},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
		if err != nil {
			return nil, eris.Wrap(err, "protected: build request")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrapf(err, "protected: fetch %s page %d", iso3, page)
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrapf(err, "protected: read response for %s", iso3)
		}
		if resp.StatusCode != http.StatusOK {
			reason := eris.Errorf("protected: api returned %d for %s page %d", resp.StatusCode, iso3, page)
			if resilience.IsTransientStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(reason, resp.StatusCode)
			}
			return nil, reason
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}

	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrapf(err, "protected: decode response for %s", iso3)
	}

	features := make([]json.RawMessage, 0, len(payload.ProtectedAreas))
	for _, pa := range payload.ProtectedAreas {
		if len(pa.GeoJSON) == 0 || string(pa.GeoJSON) == "null" {
			continue
		}
		features = append(features, pa.GeoJSON)
	}
	return features, nil
}

// FetchAll fetches every country with bounded concurrency. A failing country
// aborts the run: a partial set of countries would silently punch holes in
// the merged layer.
func (c *Client) FetchAll(ctx context.Context, countries []string, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "protected: create %s", outDir)
	}

	files := make([]string, len(countries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, iso3 := range countries {
		i, iso3 := i, iso3
		g.Go(func() error {
			out, err := c.FetchCountry(gctx, iso3, outDir)
			if err != nil {
				return err
			}
			files[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// StagedGeoJSONs lists previously fetched per-country files so the merge can
// run without refetching.
func StagedGeoJSONs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "protected: read %s", dir)
	}
	var files []string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".geojson" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, eris.Errorf("protected: no staged geojson files in %s", dir)
	}
	return files, nil
}
