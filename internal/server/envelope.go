package server

import (
	"encoding/json"
	"net/http"

	errx "github.com/ragbot-core/server/internal/core/error"
	logx "github.com/ragbot-core/server/pkg/logger"
)

// Envelope is the uniform response body of every endpoint.
type Envelope struct {
	Code int    `json:"code"`
	Data any    `json:"data"`
	Msg  string `json:"msg"`
}

func writeEnvelope(w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.Code)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logx.Error().Err(err).Msg("failed to encode response envelope")
	}
}

func writeOK(w http.ResponseWriter, data any) {
	writeEnvelope(w, Envelope{Code: http.StatusOK, Data: data, Msg: "ok"})
}

// writeMethodNotAllowed is the default envelope for methods outside an
// endpoint's allow-list. Not an error path: no exception, just the fixed body.
func writeMethodNotAllowed(w http.ResponseWriter) {
	writeEnvelope(w, Envelope{Code: http.StatusBadRequest, Data: nil, Msg: "failed"})
}

// writeError maps a service failure onto the envelope, leaking only the safe
// message carried by errx.
func writeError(w http.ResponseWriter, err error) {
	status := errx.StatusOf(err)
	msg := errx.MessageOf(err)
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		logx.Warn().Err(err).Int("status", status).Msg("request rejected")
	}
	writeEnvelope(w, Envelope{Code: status, Data: nil, Msg: msg})
}
