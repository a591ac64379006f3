package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"rydm/internal/domain"
	"rydm/internal/logger"
	"rydm/internal/ports"

	"github.com/buger/jsonparser"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBaseURL = "https://itunes.apple.com/search"
	maxParallel    = 4
	minQueryLimit  = 20
)

var ErrEmptyQuery = errors.New("empty search query")

var artworkSize = regexp.MustCompile(`/[0-9]+x[0-9]+bb(-[0-9]+)?\.`)

// result is the subset of an iTunes search result the player uses.
type result struct {
	trackID     int64
	trackName   string
	artistName  string
	collection  string
	artwork     string
	previewURL  string
	durationMS  int64
	viewURL     string
	releaseDate string
	genre       string
}

type ITunesClient struct {
	cfg        domain.CatalogConfig
	httpClient *http.Client

	mu   sync.Mutex
	rand *rand.Rand
}

// NewITunesClient returns a catalog backed by the public iTunes search API.
// rnd drives the shuffles in Discover.
func NewITunesClient(cfg domain.CatalogConfig, rnd *rand.Rand) ports.CatalogService {
	return newITunesClient(cfg, &http.Client{Timeout: cfg.Timeout}, rnd)
}

func newITunesClient(cfg domain.CatalogConfig, httpClient *http.Client, rnd *rand.Rand) *ITunesClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 50
	}
	if cfg.PerArtistCap <= 0 {
		cfg.PerArtistCap = 2
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &ITunesClient{cfg: cfg, httpClient: httpClient, rand: rnd}
}

func (c *ITunesClient) Search(ctx context.Context, term string) ([]domain.Track, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptyQuery
	}
	results, err := c.query(ctx, term, "", c.cfg.Limit)
	if err != nil {
		return nil, err
	}

	var tracks []domain.Track
	for _, r := range results {
		if r.previewURL == "" || !c.newEnough(r) {
			continue
		}
		tracks = append(tracks, r.toTrack())
	}
	logger.Log.Info().Str("term", term).Int("results", len(tracks)).Msg("Catalog search finished")
	return tracks, nil
}

type discoverQuery struct {
	term      string
	attribute string
}

// Discover queries every artist seed and the generic genre terms, then mixes
// the results so each seeded artist appears at least once and no artist
// exceeds the per-artist cap.
func (c *ITunesClient) Discover(ctx context.Context) ([]domain.Track, error) {
	c.mu.Lock()
	seeds := append([]string(nil), c.cfg.ArtistSeeds...)
	c.rand.Shuffle(len(seeds), func(i, j int) { seeds[i], seeds[j] = seeds[j], seeds[i] })
	c.mu.Unlock()

	queries := make([]discoverQuery, 0, len(seeds)+len(c.cfg.GenericTerms))
	for _, s := range seeds {
		queries = append(queries, discoverQuery{term: s, attribute: "artistTerm"})
	}
	for _, g := range c.cfg.GenericTerms {
		queries = append(queries, discoverQuery{term: g})
	}

	perQuery := max(minQueryLimit, int(math.Ceil(float64(c.cfg.Limit)/2)))
	responses := make([][]result, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, q := range queries {
		g.Go(func() error {
			res, err := c.query(gctx, q.term, q.attribute, perQuery)
			if err != nil {
				logger.Log.Warn().Err(err).Str("term", q.term).Msg("Discover query failed, skipping")
				return nil
			}
			responses[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []domain.Track
	for i, q := range queries {
		for _, r := range responses[i] {
			if r.previewURL == "" || !c.newEnough(r) {
				continue
			}
			if q.attribute == "" && !soulful(r.genre) {
				continue
			}
			all = append(all, r.toTrack())
		}
	}

	mixed := c.mix(dedupe(all), seeds)
	logger.Log.Info().Int("candidates", len(all)).Int("picked", len(mixed)).Msg("Discover playlist assembled")
	return mixed, nil
}

func (c *ITunesClient) query(ctx context.Context, term, attribute string, limit int) ([]result, error) {
	q := url.Values{}
	q.Set("term", term)
	q.Set("entity", "musicTrack")
	q.Set("media", "music")
	q.Set("limit", strconv.Itoa(limit))
	if c.cfg.Country != "" {
		q.Set("country", c.cfg.Country)
	}
	if c.cfg.Lang != "" {
		q.Set("lang", c.cfg.Lang)
	}
	if attribute != "" {
		q.Set("attribute", attribute)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return parseResults(body)
}

func parseResults(body []byte) ([]result, error) {
	raw, dataType, _, err := jsonparser.Get(body, "results")
	if err != nil {
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not parse catalog response: %w", err)
	}
	if dataType == jsonparser.Null {
		return nil, nil
	}
	if dataType != jsonparser.Array {
		return nil, fmt.Errorf("catalog results is %s, not an array", dataType)
	}

	var out []result
	_, err = jsonparser.ArrayEach(raw, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		var r result
		r.trackID, _ = jsonparser.GetInt(value, "trackId")
		r.trackName, _ = jsonparser.GetString(value, "trackName")
		r.artistName, _ = jsonparser.GetString(value, "artistName")
		r.collection, _ = jsonparser.GetString(value, "collectionName")
		for _, key := range []string{"artworkUrl100", "artworkUrl60", "artworkUrl30"} {
			if a, err := jsonparser.GetString(value, key); err == nil && a != "" {
				r.artwork = a
				break
			}
		}
		r.previewURL, _ = jsonparser.GetString(value, "previewUrl")
		r.durationMS, _ = jsonparser.GetInt(value, "trackTimeMillis")
		r.viewURL, _ = jsonparser.GetString(value, "trackViewUrl")
		r.releaseDate, _ = jsonparser.GetString(value, "releaseDate")
		r.genre, _ = jsonparser.GetString(value, "primaryGenreName")
		out = append(out, r)
	})
	if err != nil {
		return nil, fmt.Errorf("could not iterate catalog results: %w", err)
	}
	return out, nil
}

func (r result) toTrack() domain.Track {
	return domain.Track{
		ID:         "itunes:" + strconv.FormatInt(r.trackID, 10),
		Title:      r.trackName,
		Artist:     r.artistName,
		Album:      r.collection,
		CoverURL:   hiResArtwork(r.artwork),
		PreviewURL: r.previewURL,
		AudioURL:   r.previewURL,
		Duration:   int(math.Round(float64(r.durationMS) / 1000)),
		Href:       r.viewURL,
		Genre:      r.genre,
	}
}

func (c *ITunesClient) newEnough(r result) bool {
	if c.cfg.MinYear <= 0 {
		return true
	}
	y, ok := releaseYear(r.releaseDate)
	return ok && y >= c.cfg.MinYear
}

func releaseYear(s string) (int, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), true
		}
	}
	return 0, false
}

func soulful(genre string) bool {
	g := strings.ToLower(genre)
	return strings.Contains(g, "r&b") || strings.Contains(g, "soul")
}

// hiResArtwork rewrites the iTunes CDN size segment to request 1200px art.
func hiResArtwork(u string) string {
	if u == "" {
		return ""
	}
	return artworkSize.ReplaceAllString(u, "/1200x1200bb$1.")
}

func dedupe(tracks []domain.Track) []domain.Track {
	seen := make(map[string]struct{}, len(tracks))
	out := make([]domain.Track, 0, len(tracks))
	for _, t := range tracks {
		key := t.ID
		if key == "" {
			key = t.Title + "::" + t.Artist
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
