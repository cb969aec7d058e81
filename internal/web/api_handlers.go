package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/evcraddock/shepherd/internal/followup"
	"github.com/evcraddock/shepherd/internal/logging"
	"github.com/evcraddock/shepherd/internal/member"
	"github.com/evcraddock/shepherd/internal/validate"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Encoding response failed", "error", err)
	}
}

// apiFail maps a domain error onto a status code: validation failures are
// 400 with the offending field, missing records 404, anything else 500.
func apiFail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *validate.Error
	switch {
	case errors.As(err, &ve):
		apiJSON(w, map[string]string{"error": ve.Error(), "field": ve.Field}, http.StatusBadRequest)
	case errors.Is(err, followup.ErrNotFound), errors.Is(err, member.ErrNotFound):
		apiError(w, err.Error(), http.StatusNotFound)
	default:
		slog.Error("Request failed", "error", err, "path", r.URL.Path, "request_id", logging.RequestID(r.Context()))
		apiError(w, "internal server error", http.StatusInternalServerError)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// handleAPIFollowUps routes /api/followups requests.
func (s *Server) handleAPIFollowUps(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/followups")
	path = strings.Trim(path, "/")

	// /api/followups: list or create
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			s.apiListFollowUps(w, r)
		case http.MethodPost:
			s.apiCreateFollowUp(w, r)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/followups/stats
	if path == "stats" {
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiFollowUpStats(w, r)
		return
	}

	// /api/followups/{id}/next
	if id, ok := strings.CutSuffix(path, "/next"); ok {
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiScheduleNext(w, r, id)
		return
	}

	if strings.Contains(path, "/") {
		apiError(w, "not found", http.StatusNotFound)
		return
	}

	// /api/followups/{id}
	switch r.Method {
	case http.MethodGet:
		s.apiGetFollowUp(w, r, path)
	case http.MethodPut:
		s.apiUpdateFollowUp(w, r, path)
	case http.MethodDelete:
		s.apiDeleteFollowUp(w, r, path)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// apiListFollowUps returns one page of follow-ups matching the query string.
func (s *Server) apiListFollowUps(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		apiFail(w, r, err)
		return
	}

	res, err := s.followups.List(r.Context(), f)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, res, http.StatusOK)
}

// parseFilter reads list filters from query parameters. Enum values are
// case-insensitive.
func parseFilter(q url.Values) (followup.Filter, error) {
	f := followup.Filter{
		Search:       q.Get("search"),
		Status:       followup.Status(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
		Priority:     followup.Priority(strings.ToUpper(strings.TrimSpace(q.Get("priority")))),
		AssignedToID: strings.TrimSpace(q.Get("assigned_to_id")),
		MemberID:     strings.TrimSpace(q.Get("member_id")),
	}

	if v := q.Get("overdue"); v != "" {
		overdue, err := strconv.ParseBool(v)
		if err != nil {
			return f, validate.Field("overdue", "must be true or false")
		}
		f.Overdue = overdue
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"skip", &f.Skip}, {"take", &f.Take}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, validate.Field(p.name, "must be an integer")
		}
		*p.dst = n
	}

	return f, nil
}

// apiCreateFollowUp creates a follow-up from a JSON form.
func (s *Server) apiCreateFollowUp(w http.ResponseWriter, r *http.Request) {
	var form followup.Form
	if !decodeJSON(w, r, &form) {
		return
	}
	in, err := form.Input()
	if err != nil {
		apiFail(w, r, err)
		return
	}

	v, err := s.followups.Create(r.Context(), in)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, v, http.StatusCreated)
}

// apiGetFollowUp returns a single follow-up.
func (s *Server) apiGetFollowUp(w http.ResponseWriter, r *http.Request, id string) {
	v, err := s.followups.Get(r.Context(), id)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, v, http.StatusOK)
}

// apiUpdateFollowUp replaces the writable fields of a follow-up.
func (s *Server) apiUpdateFollowUp(w http.ResponseWriter, r *http.Request, id string) {
	var form followup.Form
	if !decodeJSON(w, r, &form) {
		return
	}
	in, err := form.Input()
	if err != nil {
		apiFail(w, r, err)
		return
	}

	v, err := s.followups.Update(r.Context(), id, in)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, v, http.StatusOK)
}

// apiDeleteFollowUp removes a follow-up.
func (s *Server) apiDeleteFollowUp(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.followups.Delete(r.Context(), id); err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"id": id, "removed": true}, http.StatusOK)
}

// apiScheduleNext creates the follow-up a completed one asked for.
func (s *Server) apiScheduleNext(w http.ResponseWriter, r *http.Request, id string) {
	v, err := s.followups.ScheduleNext(r.Context(), id)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, v, http.StatusCreated)
}

// apiFollowUpStats returns dashboard counts.
func (s *Server) apiFollowUpStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.followups.Stats(r.Context())
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, st, http.StatusOK)
}

// handleAPIMembers routes /api/members requests.
func (s *Server) handleAPIMembers(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/members")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			members, err := s.members.List(r.Context(), r.URL.Query().Get("search"))
			if err != nil {
				apiFail(w, r, err)
				return
			}
			if members == nil {
				members = []*member.Member{}
			}
			apiJSON(w, members, http.StatusOK)
		case http.MethodPost:
			var m member.Member
			if !decodeJSON(w, r, &m) {
				return
			}
			added, err := s.members.Add(r.Context(), m)
			if err != nil {
				apiFail(w, r, err)
				return
			}
			apiJSON(w, added, http.StatusCreated)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if strings.Contains(path, "/") {
		apiError(w, "not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		m, err := s.members.GetByID(r.Context(), path)
		if err != nil {
			apiFail(w, r, err)
			return
		}
		apiJSON(w, m, http.StatusOK)
	case http.MethodDelete:
		if err := s.members.Delete(r.Context(), path); err != nil {
			apiFail(w, r, err)
			return
		}
		apiJSON(w, map[string]interface{}{"id": path, "removed": true}, http.StatusOK)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
