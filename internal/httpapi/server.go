package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BrandonDHaskell/rollcall/internal/logging"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/service"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

type Dependencies struct {
	Logger        *slog.Logger
	Addr          string
	LedgerService *service.LedgerService
}

type Server struct {
	httpServer    *http.Server
	logger        *slog.Logger
	mux           *http.ServeMux
	ledgerService *service.LedgerService
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()
	logger := logging.NewComponentLogger(d.Logger, "httpapi")

	s := &Server{
		logger:        logger,
		mux:           mux,
		ledgerService: d.LedgerService,
	}

	mux.HandleFunc("GET /v1/people", s.handlePeople)
	mux.HandleFunc("POST /v1/attendance", s.handleAttendance)
	mux.HandleFunc("GET /v1/occasions/{occasion_id}/attendance", s.handleOccasionAttendance)

	handler := loggingMiddleware(logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) serverTime() string {
	return s.ledgerService.Now().Format(time.RFC3339)
}

func (s *Server) handlePeople(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	people, err := s.ledgerService.FindPeople(r.Context(), service.PeopleQuery{
		SchoolID: q.Get("school_id"),
		Email:    q.Get("email"),
		ID:       q.Get("id"),
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidLookup) {
			respondError(w, r, http.StatusBadRequest, "invalid_lookup", err.Error())
			return
		}
		s.logger.Error("people lookup failed", logging.Error(err))
		respondError(w, r, http.StatusServiceUnavailable, "directory_unavailable", "directory lookup failed")
		return
	}

	respond(w, r, http.StatusOK, types.PeopleResponse{People: people, ServerTime: s.serverTime()})
}

func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	var req types.AttendanceRequest
	if err := readBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "bad_body", "invalid request body")
		return
	}
	policy := types.DuplicatePolicy(r.URL.Query().Get("policy"))

	fact, err := s.ledgerService.Write(r.Context(), req, policy)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOccasionID):
			respondError(w, r, http.StatusBadRequest, "invalid_occasion_id", err.Error())
		case errors.Is(err, service.ErrInvalidPersonID):
			respondError(w, r, http.StatusBadRequest, "invalid_person_id", err.Error())
		case errors.Is(err, service.ErrInvalidStatus):
			respondError(w, r, http.StatusBadRequest, "invalid_status", err.Error())
		case errors.Is(err, service.ErrInvalidRecordedAt):
			respondError(w, r, http.StatusBadRequest, "invalid_recorded_at", err.Error())
		case errors.Is(err, service.ErrInvalidPolicy):
			respondError(w, r, http.StatusBadRequest, "invalid_policy", err.Error())
		case errors.Is(err, store.ErrConflict):
			// Duplicate under reject policy; the first fact stands.
			respond(w, r, http.StatusConflict, types.AttendanceResponse{
				OK:         false,
				Duplicate:  true,
				OccasionID: req.OccasionID,
				PersonID:   req.PersonID,
				ServerTime: s.serverTime(),
			})
		default:
			s.logger.Error("attendance write failed",
				logging.FieldOccasionID, req.OccasionID,
				logging.FieldPersonID, req.PersonID,
				logging.Error(err),
			)
			respondError(w, r, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	respond(w, r, http.StatusOK, types.AttendanceResponse{
		OK:         true,
		OccasionID: fact.OccasionID,
		PersonID:   fact.PersonID,
		Status:     string(fact.Status),
		RecordedAt: fact.RecordedAt.Format(time.RFC3339Nano),
		ServerTime: s.serverTime(),
	})
}

func (s *Server) handleOccasionAttendance(w http.ResponseWriter, r *http.Request) {
	occasionID := r.PathValue("occasion_id")
	facts, err := s.ledgerService.List(r.Context(), occasionID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOccasionID) {
			respondError(w, r, http.StatusBadRequest, "invalid_occasion_id", err.Error())
			return
		}
		s.logger.Error("attendance list failed", logging.FieldOccasionID, occasionID, logging.Error(err))
		respondError(w, r, http.StatusServiceUnavailable, "ledger_unavailable", "ledger read failed")
		return
	}

	respond(w, r, http.StatusOK, types.AttendanceListResponse{
		OccasionID: occasionID,
		Facts:      facts,
		ServerTime: s.serverTime(),
	})
}
