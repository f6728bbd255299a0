// Package geocoding resolves free-text locations to coordinates and
// coordinates to administrative regions through the Kakao local API.
//
// Every outbound call passes through a token-bucket rate limiter and a
// circuit breaker. When the breaker is open, calls fail fast and callers get
// the unknown-region sentinel instead of waiting on a dead upstream.
package geocoding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"tripreco/internal/config"
	"tripreco/internal/domain/entities"
	"tripreco/internal/logging"
	"tripreco/internal/metrics"
)

var (
	// ErrNotFound means every lookup step returned no documents.
	ErrNotFound = errors.New("location not found")

	// ErrUpstream wraps non-200 responses.
	ErrUpstream = errors.New("geocoding upstream error")
)

// Place is a forward-geocoded location.
type Place struct {
	X float64 `json:"x"` // longitude
	Y float64 `json:"y"` // latitude
	// Region is the district (region_2depth) for address matches and the
	// full address for keyword matches.
	Region string `json:"region"`
}

// Region is a reverse-geocoded administrative region. Sido is normalized to
// the short form used by the survey tables.
type Region struct {
	Sido string `json:"sido"`
	Sgg  string `json:"sgg"`
}

// UnknownRegion is returned when a reverse lookup fails.
var UnknownRegion = Region{Sido: entities.UnknownRegion, Sgg: entities.UnknownRegion}

// IsUnknown reports whether either part of the region is missing.
func (r Region) IsUnknown() bool {
	return entities.IsUnknownRegion(r.Sido) || entities.IsUnknownRegion(r.Sgg)
}

// Geocoder is the capability the services depend on.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*Place, error)
	ReverseGeocode(ctx context.Context, lon, lat float64) (Region, error)
}

const (
	pathAddress = "/v2/local/search/address.json"
	pathKeyword = "/v2/local/search/keyword.json"
	pathRegion  = "/v2/local/geo/coord2regioncode.json"
)

// Client is the Kakao local API implementation of Geocoder.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
	log     zerolog.Logger
}

var _ Geocoder = (*Client)(nil)

func NewClient(cfg config.GeocodingConfig) *Client {
	log := logging.Component("geocoding")

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "kakao-local",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenAfter,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		timeout: timeout,
		http:    &http.Client{},
		limiter: rate.NewLimiter(limit, burst),
		cb:      cb,
		log:     log,
	}
}

// get performs one rate-limited, breaker-guarded GET and returns the body.
func (c *Client) get(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := c.cb.Execute(func() ([]byte, error) {
		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining only
			return nil, fmt.Errorf("%w: %s returned %d", ErrUpstream, path, resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "breaker_open"
		}
		metrics.RecordGeocode(op, outcome)
		return nil, err
	}
	return body, nil
}

type addressResponse struct {
	Documents []struct {
		AddressName string `json:"address_name"`
		X           string `json:"x"`
		Y           string `json:"y"`
		Address     *struct {
			Region2 string `json:"region_2depth_name"`
		} `json:"address"`
		RoadAddress *struct {
			Region2 string `json:"region_2depth_name"`
		} `json:"road_address"`
	} `json:"documents"`
}

type keywordResponse struct {
	Documents []struct {
		PlaceName   string `json:"place_name"`
		AddressName string `json:"address_name"`
		X           string `json:"x"`
		Y           string `json:"y"`
	} `json:"documents"`
}

type regionResponse struct {
	Documents []struct {
		RegionType string `json:"region_type"`
		Region1    string `json:"region_1depth_name"`
		Region2    string `json:"region_2depth_name"`
	} `json:"documents"`
}

// Geocode resolves query by trying an exact address match, then a similar
// address match, then a keyword search. The first step with a result wins.
// A failing step is logged and the next one is tried.
func (c *Client) Geocode(ctx context.Context, query string) (*Place, error) {
	steps := []func(context.Context, string) (*Place, error){
		func(ctx context.Context, q string) (*Place, error) { return c.searchAddress(ctx, q, "exact") },
		func(ctx context.Context, q string) (*Place, error) { return c.searchAddress(ctx, q, "similar") },
		c.searchKeyword,
	}

	for i, step := range steps {
		place, err := step(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.log.Warn().Err(err).Int("step", i+1).Str("query", query).Msg("geocode step failed")
			continue
		}
		if place != nil {
			metrics.RecordGeocode("forward", "ok")
			return place, nil
		}
	}
	metrics.RecordGeocode("forward", "unknown")
	return nil, fmt.Errorf("%q: %w", query, ErrNotFound)
}

func (c *Client) searchAddress(ctx context.Context, query, analyzeType string) (*Place, error) {
	body, err := c.get(ctx, "forward", pathAddress, url.Values{"query": {query}, "analyze_type": {analyzeType}})
	if err != nil {
		return nil, err
	}
	var resp addressResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode address response: %w", err)
	}
	if len(resp.Documents) == 0 {
		return nil, nil
	}
	doc := resp.Documents[0]
	region := entities.UnknownRegion
	switch {
	case doc.Address != nil && doc.Address.Region2 != "":
		region = doc.Address.Region2
	case doc.RoadAddress != nil && doc.RoadAddress.Region2 != "":
		region = doc.RoadAddress.Region2
	}
	return newPlace(doc.X, doc.Y, region)
}

func (c *Client) searchKeyword(ctx context.Context, query string) (*Place, error) {
	body, err := c.get(ctx, "forward", pathKeyword, url.Values{"query": {query}})
	if err != nil {
		return nil, err
	}
	var resp keywordResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode keyword response: %w", err)
	}
	if len(resp.Documents) == 0 {
		return nil, nil
	}
	doc := resp.Documents[0]
	region := doc.AddressName
	if region == "" {
		region = entities.UnknownRegion
	}
	return newPlace(doc.X, doc.Y, region)
}

func newPlace(xs, ys, region string) (*Place, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return nil, fmt.Errorf("parse x %q: %w", xs, err)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return nil, fmt.Errorf("parse y %q: %w", ys, err)
	}
	return &Place{X: x, Y: y, Region: region}, nil
}

// ReverseGeocode returns the region containing (lon, lat). On any failure it
// returns UnknownRegion together with the cause.
func (c *Client) ReverseGeocode(ctx context.Context, lon, lat float64) (Region, error) {
	q := url.Values{
		"x": {strconv.FormatFloat(lon, 'f', -1, 64)},
		"y": {strconv.FormatFloat(lat, 'f', -1, 64)},
	}
	body, err := c.get(ctx, "reverse", pathRegion, q)
	if err != nil {
		return UnknownRegion, err
	}
	var resp regionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.RecordGeocode("reverse", metrics.OutcomeError)
		return UnknownRegion, fmt.Errorf("decode region response: %w", err)
	}
	if len(resp.Documents) == 0 {
		metrics.RecordGeocode("reverse", "unknown")
		return UnknownRegion, fmt.Errorf("(%v, %v): %w", lon, lat, ErrNotFound)
	}

	doc := resp.Documents[0]
	region := Region{
		Sido: entities.NormalizeSido(doc.Region1),
		Sgg:  doc.Region2,
	}
	if region.Sido == "" {
		region.Sido = entities.UnknownRegion
	}
	if region.Sgg == "" {
		region.Sgg = entities.UnknownRegion
	}
	metrics.RecordGeocode("reverse", "ok")
	return region, nil
}
