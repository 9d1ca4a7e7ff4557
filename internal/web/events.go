package web

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appLog "invcal/internal/log"
)

// handleListEvents returns the merged (console API + ICS feeds) event list
// for an explicit range.
//
// GET /api/events?start=RFC3339&end=RFC3339
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start")
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end before start")
		return
	}

	evs, err := s.mergedEvents(r.Context(), start.In(s.loc), end.In(s.loc))
	if err != nil {
		writeError(w, http.StatusBadGateway, "event sources unavailable")
		return
	}

	sort.SliceStable(evs, func(i, j int) bool { return evs[i].Start.Before(evs[j].Start) })

	dtos := make([]eventDTO, 0, len(evs))
	for _, ev := range evs {
		dtos = append(dtos, toEventDTO(ev))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events":     dtos,
		"rangeStart": start,
		"rangeEnd":   end,
	})
}

// handleCreateEvent forwards a new event to the console API.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var d eventDTO
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event payload")
		return
	}
	ev := fromEventDTO(d)
	if ev.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if ev.End.Before(ev.Start) {
		writeError(w, http.StatusBadRequest, "endTime before startTime")
		return
	}

	created, err := s.api.Create(r.Context(), ev)
	if err != nil {
		appLog.Error("event create failed", err)
		writeError(w, http.StatusBadGateway, "console API rejected the event")
		return
	}
	s.invalidateRanges()
	writeJSON(w, http.StatusCreated, toEventDTO(created))
}

// handleUpdateEvent forwards a full replacement (PUT) to the console API.
func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var d eventDTO
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event payload")
		return
	}
	ev := fromEventDTO(d)
	ev.ID = id
	if ev.End.Before(ev.Start) {
		writeError(w, http.StatusBadRequest, "endTime before startTime")
		return
	}

	updated, err := s.api.Update(r.Context(), ev)
	if err != nil {
		appLog.Error("event update failed", err, "id", id)
		writeError(w, http.StatusBadGateway, "console API rejected the update")
		return
	}
	s.invalidateRanges()
	writeJSON(w, http.StatusOK, toEventDTO(updated))
}

// handlePatchEvent forwards the completion toggle (PATCH).
func (s *Server) handlePatchEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		IsCompleted *bool `json:"isCompleted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IsCompleted == nil {
		writeError(w, http.StatusBadRequest, "isCompleted is required")
		return
	}

	if err := s.api.SetCompleted(r.Context(), id, *body.IsCompleted); err != nil {
		appLog.Error("event patch failed", err, "id", id)
		writeError(w, http.StatusBadGateway, "console API rejected the patch")
		return
	}
	s.invalidateRanges()
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "isCompleted": *body.IsCompleted})
}

// handleDeleteEvent forwards a deletion.
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.api.Delete(r.Context(), id); err != nil {
		appLog.Error("event delete failed", err, "id", id)
		writeError(w, http.StatusBadGateway, "console API rejected the delete")
		return
	}
	s.invalidateRanges()
	w.WriteHeader(http.StatusNoContent)
}

// invalidateRanges drops the merged-range memo after any mutation so the next
// grid render reflects it.
func (s *Server) invalidateRanges() {
	s.rangeMu.Lock()
	s.rangeCache = make(map[string]*cachedRange)
	s.rangeMu.Unlock()
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
