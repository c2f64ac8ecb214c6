package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/bankapi/internal/common"
	"github.com/dmitrijs2005/bankapi/internal/server/auth"
	"github.com/dmitrijs2005/bankapi/internal/server/models"
)

const maxBodyBytes = 1 << 16

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

func (s *HTTPServer) handleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if _, err := s.users.Register(ctx, req.Login, req.Password); err != nil {
		if !errors.Is(err, common.ErrorLoginAlreadyExists) && !errors.Is(err, common.ErrorValidation) {
			s.logger.Error(ctx, "registration failed", "request_id", requestIDFromContext(ctx), "error", err)
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.logger.Info(ctx, "Registered", "login", req.Login)
	w.WriteHeader(http.StatusCreated)
}

func (s *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	token, err := s.users.SignIn(ctx, req.Login, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			http.Error(w, "Authentication failed", http.StatusUnauthorized)
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, token)
}

func (s *HTTPServer) handleSignOut(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	if err := s.users.SignOut(r.Context(), p); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetBalance writes the balance as a bare JSON number.
func (s *HTTPServer) handleGetBalance(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	balance, err := s.users.Balance(r.Context(), p.Login)
	if err != nil {
		if errors.Is(err, common.ErrorUnknownAccount) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, balance.String())
}

// handleTransfer answers 400 for every failed transfer, whatever the cause.
func (s *HTTPServer) handleTransfer(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	ctx := r.Context()

	var req models.TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	err := s.transfers.Transfer(ctx, p.Login, req.RecipientLogin, req.Amount)
	s.metrics.RecordTransfer(err)
	if err != nil {
		s.logger.Info(ctx, "transfer rejected",
			"request_id", requestIDFromContext(ctx), "from", p.Login, "to", req.RecipientLogin, "reason", err.Error())
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *HTTPServer) handlePing(w http.ResponseWriter, _ *http.Request) {
	_, _ = io.WriteString(w, "OK")
}
