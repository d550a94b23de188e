package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/notifier/internal/service"
)

type setTransportRequest struct {
	DSN string `json:"dsn" validate:"required"`
}

func (s *Server) handleListTransports(w http.ResponseWriter, r *http.Request) {
	list, err := s.transportSvc.List(r.Context())
	if err != nil {
		s.logger.Error("list transports failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transports")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSetTransport(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "*")

	var req setTransportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, service.NewValidationError(err).Error())
		return
	}

	info, err := s.transportSvc.Set(r.Context(), channel, req.DSN)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
			return
		}
		s.logger.Error("set transport failed", "channel", channel, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save transport")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteTransport(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "*")
	if err := s.transportSvc.Remove(r.Context(), channel); err != nil {
		var ve *service.ValidationError
		var nfe *service.NotFoundError
		switch {
		case errors.As(err, &nfe):
			writeError(w, http.StatusNotFound, nfe.Error())
		case errors.As(err, &ve):
			writeError(w, http.StatusBadRequest, ve.Error())
		default:
			s.logger.Error("delete transport failed", "channel", channel, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete transport")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
