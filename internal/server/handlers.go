package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"InvestorHelper/internal/calculator"
	"InvestorHelper/internal/movers"
	"InvestorHelper/internal/recorder"
	"InvestorHelper/internal/service"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWalletValuation(w http.ResponseWriter, r *http.Request) {
	walletID := r.URL.Query().Get("walletId")
	if walletID == "" {
		s.writeError(w, http.StatusBadRequest, "walletId is required")
		return
	}
	v, err := s.engine.ValuateWallet(r.Context(), walletID, r.URL.Query().Get("timeframe"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleValuationHistory(w http.ResponseWriter, r *http.Request) {
	walletID := r.URL.Query().Get("walletId")
	if walletID == "" {
		s.writeError(w, http.StatusBadRequest, "walletId is required")
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	history, err := s.history.ValuationHistory(r.Context(), walletID, limit)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"result": history})
}

func (s *Server) handleComparePrices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.CompareRequest{
		Symbols:   service.ParseSymbols(q.Get("symbols")),
		Timeframe: q.Get("timeframe"),
	}
	var err error
	if req.From, err = unixParam(r, "from"); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.To, err = unixParam(r, "to"); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := s.engine.Compare(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleMovers(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := s.engine.Movers(r.Context(), r.URL.Query().Get("direction"), limit)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"result": rows})
}

// writeEngineError maps engine errors to HTTP statuses.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var rangeErr *calculator.InvalidRangeError
	switch {
	case errors.As(err, &rangeErr),
		errors.Is(err, service.ErrNoSymbols),
		errors.Is(err, movers.ErrInvalidSort):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, recorder.ErrWalletNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}

// unixParam parses an epoch-seconds query parameter; absent means zero time.
func unixParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, errors.New(name + " must be epoch seconds")
	}
	return time.Unix(n, 0).UTC(), nil
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
