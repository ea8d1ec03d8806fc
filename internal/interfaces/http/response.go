package httpinterface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/evrwallet/evrwallet-daemon/internal/core/application"
	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

var rpcCodeStatus = map[domain.RpcErrorCode]int{
	domain.ResourceUnavailable:      http.StatusNotFound,
	domain.InvalidRequest:           http.StatusBadRequest,
	domain.Internal:                 http.StatusInternalServerError,
	domain.ConnectionNotInitialized: http.StatusServiceUnavailable,
	domain.TryAgainLater:            http.StatusServiceUnavailable,
}

var badRequestErrors = []error{
	domain.ErrInvalidNetworkName,
	domain.ErrInvalidNetworkGroup,
	domain.ErrInvalidConnectionType,
	domain.ErrMissingEndpoints,
	domain.ErrNotCustomNetwork,
	domain.ErrInvalidLt,
	domain.ErrInvalidAddress,
	application.ErrUnknownContractType,
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Warn("http: failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	resp := errorResponse{Error: err.Error()}
	if code, ok := domain.RpcErrorCodeOf(err); ok {
		resp.Code = code.String()
	}
	if status >= http.StatusInternalServerError {
		log.WithError(err).Debug("http: request failed")
	}
	writeJSON(w, status, resp)
}

func statusOf(err error) int {
	if code, ok := domain.RpcErrorCodeOf(err); ok {
		if status, ok := rpcCodeStatus[code]; ok {
			return status
		}
		return http.StatusInternalServerError
	}

	for _, e := range badRequestErrors {
		if errors.Is(err, e) {
			return http.StatusBadRequest
		}
	}

	switch {
	case errors.Is(err, errInvalidBody), errors.Is(err, errInvalidParam):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownNetwork):
		return http.StatusNotFound
	case errors.Is(err, application.ErrSelectedNetworkDeletion),
		errors.Is(err, application.ErrSelectedNetworkReset),
		errors.Is(err, application.ErrAlreadySynced):
		return http.StatusConflict
	case errors.Is(err, application.ErrNoSuitableConnection):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

var (
	errInvalidBody  = errors.New("invalid request body")
	errInvalidParam = errors.New("invalid request param")
)

func decodeBody(r *http.Request, out interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s", errInvalidBody, err)
	}
	return nil
}
