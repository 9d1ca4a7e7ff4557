// Package holiday accumulates public-holiday names fetched month-by-month
// from the remote holiday API. The index is additive only: entries are never
// invalidated or removed for the lifetime of the process.
package holiday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"invcal/internal/calview"
	appLog "invcal/internal/log"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultMonthTTL    = 24 * time.Hour
)

// Index maps a day key ("2006-01-02") to a holiday name. Exact-day lookup
// only; no range semantics.
type Index map[string]string

// Merge adds all entries of m into the index. Existing entries are kept when
// a key collides, matching the accumulate-only contract.
func (idx Index) Merge(m map[string]string) {
	for k, v := range m {
		if _, ok := idx[k]; !ok {
			idx[k] = v
		}
	}
}

// Lookup returns the holiday name for the given date, if any.
func (idx Index) Lookup(date time.Time) (string, bool) {
	name, ok := idx[calview.DayKey(date)]
	return name, ok
}

// monthResponse is the JSON shape of the holiday API.
//
//	GET {base}/api/holidays?year=2024&month=1
//	{"holidays": {"2024-01-01": "신정", ...}}
type monthResponse struct {
	Holidays map[string]string `json:"holidays"`
}

// Client fetches one month of holidays per call from the remote holiday API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	serviceKey string
}

// NewClient creates a holiday API client. serviceKey may be empty when the
// endpoint is unauthenticated.
func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		baseURL:    baseURL,
		serviceKey: serviceKey,
	}
}

// FetchMonth retrieves the holiday map for a single (year, month) pair.
func (c *Client) FetchMonth(ctx context.Context, year int, month time.Month) (map[string]string, error) {
	if c.baseURL == "" {
		return nil, errors.New("holiday: base URL is not configured")
	}
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("holiday: month out of range: %d", int(month))
	}

	u := fmt.Sprintf("%s/api/holidays?%s", c.baseURL, url.Values{
		"year":  []string{fmt.Sprint(year)},
		"month": []string{fmt.Sprint(int(month))},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if c.serviceKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("holiday: fetch %d-%02d: %w", year, int(month), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday: fetch %d-%02d: unexpected status %s", year, int(month), resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var mr monthResponse
	if err := json.Unmarshal(body, &mr); err != nil {
		return nil, fmt.Errorf("holiday: decode %d-%02d: %w", year, int(month), err)
	}

	appLog.Debug("holiday month fetched", "year", year, "month", int(month), "count", len(mr.Holidays))
	return mr.Holidays, nil
}

// Store is the shell-side accumulator: it owns the additive Index and
// remembers which months were fetched recently so repeated grid requests do
// not hammer the API. Stale index entries persist; only the refetch decision
// uses the TTL.
type Store struct {
	client *Client

	mu      sync.RWMutex
	index   Index
	fetched map[string]time.Time // "2024-01" -> fetch time
	ttl     time.Duration
	now     func() time.Time
}

// NewStore wraps a Client with an accumulating index. ttl <= 0 selects a
// one-day default.
func NewStore(client *Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultMonthTTL
	}
	return &Store{
		client:  client,
		index:   make(Index),
		fetched: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

func monthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// EnsureMonth fetches the given month into the index unless it was fetched
// within the TTL. Fetch failures leave the existing index untouched.
func (s *Store) EnsureMonth(ctx context.Context, year int, month time.Month) error {
	key := monthKey(year, month)

	s.mu.RLock()
	at, ok := s.fetched[key]
	s.mu.RUnlock()
	if ok && s.now().Sub(at) < s.ttl {
		return nil
	}

	m, err := s.client.FetchMonth(ctx, year, month)
	if err != nil {
		appLog.Error("holiday month fetch failed", err, "year", year, "month", int(month))
		return err
	}

	s.mu.Lock()
	s.index.Merge(m)
	s.fetched[key] = s.now()
	s.mu.Unlock()
	return nil
}

// EnsureRange fetches every (year, month) touched by [start, end]. Individual
// month failures are logged and skipped so one bad month does not blank the
// whole view.
func (s *Store) EnsureRange(ctx context.Context, start, end time.Time) {
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
	for !cur.After(end) {
		_ = s.EnsureMonth(ctx, cur.Year(), cur.Month())
		cur = cur.AddDate(0, 1, 0)
	}
}

// Lookup returns the holiday name for the given date from the accumulated
// index.
func (s *Store) Lookup(date time.Time) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Lookup(date)
}

// Snapshot copies the accumulated index for read-only use by the view layer.
func (s *Store) Snapshot() Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(Index, len(s.index))
	for k, v := range s.index {
		out[k] = v
	}
	return out
}
