// Package events is the HTTP client for the inventory console API's schedule
// endpoints. Inventory totals, transaction history and event persistence all
// live server-side; this client only moves JSON.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	appLog "invcal/internal/log"
	"invcal/internal/model"
)

const defaultHTTPTimeout = 15 * time.Second

// eventDTO mirrors the console API's JSON event shape.
type eventDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Author      string    `json:"author,omitempty"`
	Location    string    `json:"location,omitempty"`
	AllDay      bool      `json:"allDay"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Color       string    `json:"color,omitempty"`
	IsCompleted bool      `json:"isCompleted"`
}

func toDTO(ev model.Event) eventDTO {
	return eventDTO{
		ID:          ev.ID,
		Title:       ev.Title,
		Description: ev.Description,
		Author:      ev.Author,
		Location:    ev.Location,
		AllDay:      ev.AllDay,
		StartTime:   ev.Start,
		EndTime:     ev.End,
		Color:       ev.Color,
		IsCompleted: ev.Completed,
	}
}

func fromDTO(d eventDTO, loc *time.Location) model.Event {
	ev := model.Event{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Author:      d.Author,
		Location:    d.Location,
		AllDay:      d.AllDay,
		Start:       d.StartTime,
		End:         d.EndTime,
		Color:       d.Color,
		Completed:   d.IsCompleted,
	}
	if loc != nil {
		ev.Start = ev.Start.In(loc)
		ev.End = ev.End.In(loc)
	}
	ev.NormalizeAllDay()
	return ev
}

// Client talks to the console API. All mutations are passthrough; the server
// owns validation, roles and persistence.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string

	// defaultAuthor is stamped onto created events that carry no author.
	// Explicit configuration instead of the old ambient session lookup.
	defaultAuthor string

	// displayLoc is the timezone fetched events are converted into.
	displayLoc *time.Location
}

// NewClient creates a console API client. token may be empty; displayLoc nil
// means times are kept as the server sent them.
func NewClient(baseURL, token, defaultAuthor string, displayLoc *time.Location) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: defaultHTTPTimeout},
		baseURL:       baseURL,
		token:         token,
		defaultAuthor: defaultAuthor,
		displayLoc:    displayLoc,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, errors.New("events: base URL is not configured")
	}

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("events: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Surface a short body excerpt; the API reports errors as JSON text.
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("events: %s %s: unexpected status %s: %s",
			req.Method, req.URL.Path, resp.Status, bytes.TrimSpace(excerpt))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("events: decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// FetchRange returns all events overlapping [start, end). The server is
// trusted to apply the range; results are not re-filtered here.
func (c *Client) FetchRange(ctx context.Context, start, end time.Time) ([]model.Event, error) {
	q := url.Values{
		"start": []string{start.Format(time.RFC3339Nano)},
		"end":   []string{end.Format(time.RFC3339Nano)},
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/events?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var dtos []eventDTO
	if err := c.do(req, &dtos); err != nil {
		return nil, err
	}

	out := make([]model.Event, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, fromDTO(d, c.displayLoc))
	}
	appLog.Debug("events fetched", "count", len(out),
		"start", start.Format(time.RFC3339), "end", end.Format(time.RFC3339))
	return out, nil
}

// Create posts a new event. A missing ID gets a client-generated UUID and a
// missing author the configured default.
func (c *Client) Create(ctx context.Context, ev model.Event) (model.Event, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Author == "" {
		ev.Author = c.defaultAuthor
	}
	ev.NormalizeAllDay()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/events", toDTO(ev))
	if err != nil {
		return model.Event{}, err
	}

	var d eventDTO
	if err := c.do(req, &d); err != nil {
		return model.Event{}, err
	}
	return fromDTO(d, c.displayLoc), nil
}

// Update replaces an existing event (PUT).
func (c *Client) Update(ctx context.Context, ev model.Event) (model.Event, error) {
	if ev.ID == "" {
		return model.Event{}, errors.New("events: update requires an ID")
	}
	ev.NormalizeAllDay()

	req, err := c.newRequest(ctx, http.MethodPut, "/api/events/"+url.PathEscape(ev.ID), toDTO(ev))
	if err != nil {
		return model.Event{}, err
	}

	var d eventDTO
	if err := c.do(req, &d); err != nil {
		return model.Event{}, err
	}
	return fromDTO(d, c.displayLoc), nil
}

// SetCompleted flips only the completion flag (PATCH). Cosmetic per the
// console's semantics; the server does not derive anything from it.
func (c *Client) SetCompleted(ctx context.Context, id string, completed bool) error {
	if id == "" {
		return errors.New("events: set-completed requires an ID")
	}
	body := map[string]bool{"isCompleted": completed}

	req, err := c.newRequest(ctx, http.MethodPatch, "/api/events/"+url.PathEscape(id), body)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Delete removes an event.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("events: delete requires an ID")
	}
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/events/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
