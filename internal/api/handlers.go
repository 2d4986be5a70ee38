package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"travelmail/internal/classify"
	"travelmail/internal/metrics"
	"travelmail/internal/roundtrip"
	"travelmail/internal/storage"
	"travelmail/internal/trips"
	"travelmail/internal/validate"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := storage.ListParams{
		Status:   q.Get("status"),
		FullText: q.Get("q"),
	}
	if v := q.Get("limit"); v != "" {
		p.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		p.Offset, _ = strconv.Atoi(v)
	}

	cands, err := s.store.ListCandidates(r.Context(), p)
	if err != nil {
		s.internalError(w, "list candidates", err)
		return
	}
	if cands == nil {
		cands = []storage.Candidate{}
	}
	writeJSON(w, http.StatusOK, cands)
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCandidate(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "candidate not found")
		return
	}
	if err != nil {
		s.internalError(w, "get candidate", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type statusResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Persisted bool   `json:"persisted"`
}

// handleSetStatus records a review decision. With a period store configured
// the stored periods are brought in line with the rebuilt itinerary: new
// periods are upserted and periods that no longer exist, such as a rejected
// candidate's or a round trip built on it, are removed.
func (s *Server) handleSetStatus(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")

		var before itineraryResponse
		if s.periods != nil {
			var err error
			if before, _, err = s.itinerary(ctx); err != nil {
				s.internalError(w, "build itinerary", err)
				return
			}
		}

		err := s.store.SetStatus(ctx, id, status)
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "candidate not found")
			return
		}
		if err != nil {
			s.internalError(w, "set status", err)
			return
		}
		resp := statusResponse{ID: id, Status: status}

		if s.periods != nil {
			after, _, err := s.itinerary(ctx)
			if err != nil {
				s.internalError(w, "build itinerary", err)
				return
			}
			if err := s.periods.ReplacePeriods(ctx, stalePeriods(before.Periods, after.Periods), after.Periods); err != nil {
				s.internalError(w, "persist periods", err)
				return
			}
			resp.Persisted = true
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// stalePeriods returns the ids in before that are missing from after.
func stalePeriods(before, after []trips.TravelPeriod) []string {
	keep := make(map[string]bool, len(after))
	for _, p := range after {
		keep[p.ID] = true
	}
	var out []string
	for _, p := range before {
		if !keep[p.ID] {
			out = append(out, p.ID)
		}
	}
	return out
}

// CandidateEdit lists the fields a reviewer may correct. Nil fields are left
// unchanged; an empty string clears the field.
type CandidateEdit struct {
	DepartureDate    *string `json:"departure_date"`
	ReturnDate       *string `json:"return_date"`
	DepartureAirport *string `json:"departure_airport"`
	ArrivalAirport   *string `json:"arrival_airport"`
	FlightNumber     *string `json:"flight_number"`
	BookingReference *string `json:"booking_reference"`
	HotelName        *string `json:"hotel_name"`
	PassengerName    *string `json:"passenger_name"`
}

// Apply returns rec with the edit applied. Codes are upper-cased.
func (e CandidateEdit) Apply(rec classify.ExtractedRecord) classify.ExtractedRecord {
	out := rec.Clone()
	set := func(dst *string, src *string, upper bool) {
		if src == nil {
			return
		}
		v := strings.TrimSpace(*src)
		if upper {
			v = strings.ToUpper(v)
		}
		*dst = v
	}
	set(&out.DepartureDate, e.DepartureDate, false)
	set(&out.ReturnDate, e.ReturnDate, false)
	set(&out.DepartureAirport, e.DepartureAirport, true)
	set(&out.ArrivalAirport, e.ArrivalAirport, true)
	set(&out.FlightNumber, e.FlightNumber, true)
	set(&out.BookingReference, e.BookingReference, true)
	set(&out.HotelName, e.HotelName, false)
	set(&out.PassengerName, e.PassengerName, false)
	return out
}

type editResponse struct {
	Candidate storage.Candidate `json:"candidate"`
	Issues    []string          `json:"issues"`
}

// handleEditCandidate applies a reviewer correction and re-validates the
// record. Confidence moves by the per-issue penalty for each issue fixed or
// introduced, so repeated edits do not compound the penalty.
func (s *Server) handleEditCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var edit CandidateEdit
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	c, err := s.store.GetCandidate(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "candidate not found")
		return
	}
	if err != nil {
		s.internalError(w, "get candidate", err)
		return
	}

	rec := edit.Apply(c.Record)
	res := s.pipeline.Validator().Validate(rec)
	delta := float64(len(c.Issues)-len(res.Issues)) * validate.PenaltyPerIssue
	rec.Confidence = classify.Clamp(rec.Confidence + delta)

	if err := s.store.UpdateRecord(ctx, rec, res.Issues); err != nil {
		s.internalError(w, "update record", err)
		return
	}
	metrics.RecordValidationIssues(len(res.Issues))

	c.Record = rec
	c.Issues = res.Issues
	issues := res.Issues
	if issues == nil {
		issues = []string{}
	}
	writeJSON(w, http.StatusOK, editResponse{Candidate: c, Issues: issues})
}

type itineraryResponse struct {
	Periods     []trips.TravelPeriod   `json:"periods"`
	Suggestions []roundtrip.Suggestion `json:"suggestions"`
}

// itinerary rebuilds periods from accepted candidates, applies recorded
// round-trip decisions and returns the undecided suggestions whose periods
// are both still present. The second result holds every suggestion.
func (s *Server) itinerary(ctx context.Context) (itineraryResponse, []roundtrip.Suggestion, error) {
	accepted, err := s.store.AcceptedRecords(ctx)
	if err != nil {
		return itineraryResponse{}, nil, err
	}
	decisions, err := s.store.Decisions(ctx)
	if err != nil {
		return itineraryResponse{}, nil, err
	}

	det := roundtrip.NewDetector(roundtrip.WithWindow(s.window), roundtrip.WithDerivedIDs())
	it := s.pipeline.Itinerary(accepted, det)

	periods := roundtrip.ApplyAll(it.Periods, it.Suggestions, decisions)
	trips.SortByDate(periods)

	present := make(map[string]bool, len(periods))
	for _, p := range periods {
		present[p.ID] = true
	}
	pending := []roundtrip.Suggestion{}
	for _, sg := range it.Suggestions {
		if _, decided := decisions[sg.ID]; decided {
			continue
		}
		// Superseded by an accepted round trip sharing one of its periods.
		if !present[sg.Outbound.ID] || !present[sg.Return.ID] {
			continue
		}
		pending = append(pending, sg)
	}
	if periods == nil {
		periods = []trips.TravelPeriod{}
	}
	return itineraryResponse{Periods: periods, Suggestions: pending}, it.Suggestions, nil
}

func (s *Server) handleItinerary(w http.ResponseWriter, r *http.Request) {
	resp, _, err := s.itinerary(r.Context())
	if err != nil {
		s.internalError(w, "build itinerary", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type roundTripResponse struct {
	SuggestionID string               `json:"suggestion_id"`
	Accepted     bool                 `json:"accepted"`
	Periods      []trips.TravelPeriod `json:"periods"`
	Persisted    bool                 `json:"persisted"`
}

func (s *Server) handleRoundTrip(accept bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")

		current, all, err := s.itinerary(ctx)
		if err != nil {
			s.internalError(w, "build itinerary", err)
			return
		}

		var sg *roundtrip.Suggestion
		for i := range current.Suggestions {
			if current.Suggestions[i].ID == id {
				sg = &current.Suggestions[i]
			}
		}
		if sg == nil {
			for _, known := range all {
				if known.ID == id {
					writeError(w, http.StatusConflict, "suggestion already decided or superseded")
					return
				}
			}
			writeError(w, http.StatusNotFound, "suggestion not found")
			return
		}

		if err := s.store.SaveDecision(ctx, id, accept); err != nil {
			s.internalError(w, "save decision", err)
			return
		}
		decision := "rejected"
		if accept {
			decision = "accepted"
		}
		metrics.RecordRoundTrip(decision)

		periods := roundtrip.Apply(current.Periods, *sg, accept)
		resp := roundTripResponse{SuggestionID: id, Accepted: accept, Periods: periods}

		if s.periods != nil {
			var remove []string
			if accept {
				remove = []string{sg.Outbound.ID, sg.Return.ID}
			}
			if err := s.periods.ReplacePeriods(ctx, remove, periods); err != nil {
				s.internalError(w, "persist periods", err)
				return
			}
			resp.Persisted = true
		}

		s.log.Info("round trip decided", zap.String("suggestion_id", id), zap.Bool("accepted", accept))
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	if s.periods == nil {
		writeError(w, http.StatusNotImplemented, "period store not configured")
		return
	}
	periods, err := s.periods.ListPeriods(r.Context(), strings.ToUpper(r.URL.Query().Get("country")))
	if err != nil {
		s.internalError(w, "list periods", err)
		return
	}
	if periods == nil {
		periods = []trips.TravelPeriod{}
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *Server) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	if s.periods == nil {
		writeError(w, http.StatusNotImplemented, "period store not configured")
		return
	}
	p, err := s.periods.GetPeriod(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.internalError(w, "get period", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "period not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type statsResponse struct {
	Candidates map[string]int         `json:"candidates"`
	Categories []storage.CategoryStat `json:"categories,omitempty"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.Stats(r.Context())
	if err != nil {
		s.internalError(w, "candidate stats", err)
		return
	}
	resp := statsResponse{Candidates: counts}

	if s.audit != nil {
		cats, err := s.audit.CategoryStats(r.Context())
		if err != nil {
			// Audit stats are best-effort.
			s.log.Warn("category stats unavailable", zap.Error(err))
		} else {
			resp.Categories = cats
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.log.Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}
