// Package weather fetches the daily marine summary used when deciding
// whether to close a day of operation. The booking core never calls
// this directly; administrators consult it and record closures in the
// operating calendar, which is what the calendar gate reads.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Recommendation is a three-level safety assessment for a day.
type Recommendation string

const (
	RecommendationSafe    Recommendation = "SAFE"
	RecommendationCaution Recommendation = "CAUTION"
	RecommendationUnsafe  Recommendation = "UNSAFE"
)

// Summary is the cached daily marine forecast for the harbor.
type Summary struct {
	Date           string         `json:"date"`
	WaveHeightM    float64        `json:"wave_height_m"`
	WindSpeedKn    float64        `json:"wind_speed_kn"`
	Recommendation Recommendation `json:"recommendation"`
}

// Client fetches daily summaries from the marine forecast provider and
// caches them. One forecast per date per TTL window reaches upstream no
// matter how often administrators refresh the calendar view.
type Client struct {
	baseURL   string
	latitude  string
	longitude string
	ttl       time.Duration
	cache     Cache
	httpc     *http.Client
}

// NewClient builds a Client for the given provider endpoint and harbor
// coordinates. cache must not be nil.
func NewClient(baseURL, latitude, longitude string, ttl time.Duration, cache Cache) *Client {
	return &Client{
		baseURL:   baseURL,
		latitude:  latitude,
		longitude: longitude,
		ttl:       ttl,
		cache:     cache,
		httpc:     &http.Client{Timeout: 10 * time.Second},
	}
}

// providerResponse mirrors the daily block of the forecast API.
type providerResponse struct {
	Daily struct {
		WaveHeightMax []float64 `json:"wave_height_max"`
		WindSpeedMax  []float64 `json:"wind_speed_10m_max"`
	} `json:"daily"`
}

// DailySummary returns the marine summary for a date, serving from the
// cache when a fresh entry exists.
func (c *Client) DailySummary(ctx context.Context, date time.Time) (*Summary, error) {
	key := "marine:" + date.Format("2006-01-02")
	if bs, ok := c.cache.Get(ctx, key); ok {
		var s Summary
		if err := json.Unmarshal(bs, &s); err == nil {
			return &s, nil
		}
		// Corrupt entry: fall through to a fresh fetch.
	}

	s, err := c.fetch(ctx, date)
	if err != nil {
		return nil, err
	}
	if bs, err := json.Marshal(s); err == nil {
		c.cache.Set(ctx, key, bs, c.ttl)
	}
	return s, nil
}

func (c *Client) fetch(ctx context.Context, date time.Time) (*Summary, error) {
	day := date.Format("2006-01-02")
	u := fmt.Sprintf("%s?latitude=%s&longitude=%s&daily=wave_height_max,wind_speed_10m_max&start_date=%s&end_date=%s",
		c.baseURL, url.QueryEscape(c.latitude), url.QueryEscape(c.longitude), day, day)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("marine forecast fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("marine forecast fetch: status %d", resp.StatusCode)
	}

	var pr providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("marine forecast decode: %w", err)
	}
	if len(pr.Daily.WaveHeightMax) == 0 || len(pr.Daily.WindSpeedMax) == 0 {
		return nil, fmt.Errorf("marine forecast: no data for %s", day)
	}

	s := &Summary{
		Date:        day,
		WaveHeightM: pr.Daily.WaveHeightMax[0],
		WindSpeedKn: pr.Daily.WindSpeedMax[0],
	}
	s.Recommendation = Classify(s.WaveHeightM, s.WindSpeedKn)
	return s, nil
}

// Classify maps wave height and wind speed onto the three-level safety
// recommendation shown to administrators.
func Classify(waveHeightM, windSpeedKn float64) Recommendation {
	switch {
	case waveHeightM >= 2.5 || windSpeedKn >= 30:
		return RecommendationUnsafe
	case waveHeightM >= 1.5 || windSpeedKn >= 20:
		return RecommendationCaution
	default:
		return RecommendationSafe
	}
}
