package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"invcal/internal/model"
)

func TestFetchRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/events" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("start") == "" || r.URL.Query().Get("end") == "" {
			t.Error("missing start/end query parameters")
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": "e1", "title": "재고 실사", "allDay": true,
			 "startTime": "2024-03-05T00:00:00Z", "endTime": "2024-03-05T00:00:00Z"},
			{"id": "e2", "title": "입고 검수", "allDay": false,
			 "startTime": "2024-03-05T09:30:00Z", "endTime": "2024-03-05T10:15:00Z",
			 "color": "#3b82f6", "isCompleted": true}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token", "관리자", time.UTC)
	evs, err := c.FetchRange(context.Background(),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if len(evs) != 2 {
		t.Fatalf("len(evs) = %d, want 2", len(evs))
	}

	// All-day events come back normalized to full-day bounds.
	if !evs[0].Start.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("all-day start = %v", evs[0].Start)
	}
	if !evs[0].End.Equal(time.Date(2024, 3, 5, 23, 59, 59, 999999999, time.UTC)) {
		t.Errorf("all-day end = %v", evs[0].End)
	}
	if !evs[1].Completed || evs[1].Color != "#3b82f6" {
		t.Errorf("timed event fields lost: %+v", evs[1])
	}
}

func TestCreateFillsIDAndAuthor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/events" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var d eventDTO
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if d.ID == "" {
			t.Error("ID was not generated client-side")
		}
		if d.Author != "관리자" {
			t.Errorf("Author = %q, want configured default", d.Author)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(d)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "관리자", time.UTC)
	got, err := c.Create(context.Background(), model.Event{
		Title: "창고 이동",
		Start: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID == "" || got.Author != "관리자" {
		t.Errorf("Create result = %+v", got)
	}
}

func TestSetCompletedAndDelete(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		if r.Method == http.MethodPatch {
			json.NewDecoder(r.Body).Decode(&gotBody)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", time.UTC)

	if err := c.SetCompleted(context.Background(), "e1", true); err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/api/events/e1" || !gotBody["isCompleted"] {
		t.Errorf("PATCH request was %s %s body %v", gotMethod, gotPath, gotBody)
	}

	if err := c.Delete(context.Background(), "e1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/events/e1" {
		t.Errorf("DELETE request was %s %s", gotMethod, gotPath)
	}
}

func TestErrorStatusSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "role required", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", time.UTC)
	err := c.Delete(context.Background(), "e1")
	if err == nil {
		t.Fatal("Delete should fail on 403")
	}
}

func TestMutationRequiresID(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", "", "", time.UTC)
	if _, err := c.Update(context.Background(), model.Event{}); err == nil {
		t.Error("Update without ID should fail")
	}
	if err := c.SetCompleted(context.Background(), "", true); err == nil {
		t.Error("SetCompleted without ID should fail")
	}
	if err := c.Delete(context.Background(), ""); err == nil {
		t.Error("Delete without ID should fail")
	}
}
