package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/powerflowhq/powerflow/internal/billing"
	"github.com/powerflowhq/powerflow/internal/stats"
	"github.com/powerflowhq/powerflow/internal/upstream"
)

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.svc.Store().Snapshot())
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, stats.ComputeOverview(s.svc.Store().Snapshot()))
}

func (s *Server) handleRevenue(w http.ResponseWriter, r *http.Request) {
	snap := s.svc.Store().Snapshot()
	s.respond(w, http.StatusOK, map[string]any{"monthly": stats.MonthlyRevenue(snap.Bills)})
}

func (s *Server) handleConsumption(w http.ResponseWriter, r *http.Request) {
	snap := s.svc.Store().Snapshot()
	s.respond(w, http.StatusOK, stats.ConsumptionByType(snap.Bills, snap.Customers))
}

func (s *Server) handleStatusCounts(w http.ResponseWriter, r *http.Request) {
	snap := s.svc.Store().Snapshot()
	s.respond(w, http.StatusOK, stats.StatusCounts(snap.Bills))
}

func (s *Server) handleResync(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Resync(r.Context()); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, s.svc.Store().Snapshot())
}

// Customers

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in billing.CustomerInput
	if !s.decode(w, r, &in) {
		return
	}
	c, err := s.svc.CreateCustomer(r.Context(), in)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var in billing.CustomerInput
	if !s.decode(w, r, &in) {
		return
	}
	c, err := s.svc.UpdateCustomer(r.Context(), pathID(r), in)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, c)
}

// Meters

func (s *Server) handleCreateMeter(w http.ResponseWriter, r *http.Request) {
	var in billing.MeterInput
	if !s.decode(w, r, &in) {
		return
	}
	m, err := s.svc.CreateMeter(r.Context(), in)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, m)
}

func (s *Server) handleUpdateMeter(w http.ResponseWriter, r *http.Request) {
	var in billing.MeterInput
	if !s.decode(w, r, &in) {
		return
	}
	m, err := s.svc.UpdateMeter(r.Context(), pathID(r), in)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, m)
}

// Readings

func (s *Server) handleCreateReading(w http.ResponseWriter, r *http.Request) {
	var in billing.ReadingInput
	if !s.decode(w, r, &in) {
		return
	}
	rec, err := s.svc.CreateReading(r.Context(), in)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateReading(w http.ResponseWriter, r *http.Request) {
	var in billing.ReadingInput
	if !s.decode(w, r, &in) {
		return
	}
	rec, err := s.svc.UpdateReading(r.Context(), pathID(r), in)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, rec)
}

// Bills

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var in billing.BillInput
	if !s.decode(w, r, &in) {
		return
	}
	b, err := s.svc.CreateBill(r.Context(), in)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, b)
}

func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	var in billing.BillInput
	if !s.decode(w, r, &in) {
		return
	}
	b, err := s.svc.UpdateBill(r.Context(), pathID(r), in)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, b)
}

// deleteHandler wraps an entity delete. Deletion is destructive and the UI
// always confirms first, so the API refuses requests without the explicit
// confirm flag before anything goes upstream.
func (s *Server) deleteHandler(del func(ctx context.Context, id int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("confirm") != "true" {
			s.respond(w, http.StatusBadRequest, map[string]string{"error": "delete requires confirm=true"})
			return
		}
		if err := del(r.Context(), pathID(r)); err != nil {
			s.respondError(w, err)
			return
		}
		s.respond(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

// respondError maps service errors onto the HTTP surface: validation
// failures are the caller's fault, referential rejections surface the
// upstream message verbatim as a conflict, and everything else means the
// billing API is unavailable.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	var vErr *billing.ValidationError
	if errors.As(err, &vErr) {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": vErr.Error()})
		return
	}
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		if apiErr.ReferentialRejection() {
			s.respond(w, http.StatusConflict, map[string]string{"error": apiErr.Message})
			return
		}
		s.respond(w, http.StatusBadGateway, map[string]string{"error": apiErr.Message})
		return
	}
	s.respond(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
}
