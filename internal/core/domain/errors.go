package domain

import (
	"errors"
	"fmt"
)

// RpcErrorCode classifies the failures surfaced to the callers of the
// account and connection services.
type RpcErrorCode int

const (
	// ResourceUnavailable means that the requested subscription does not exist
	// or that the contract state could not be obtained.
	ResourceUnavailable RpcErrorCode = iota + 1
	// InvalidRequest means that the params are malformed or that the storage
	// rejected the request.
	InvalidRequest
	// Internal means that a transport or serialization step failed.
	Internal
	// ConnectionNotInitialized means that no network connection exists yet.
	ConnectionNotInitialized
	// TryAgainLater means that the provider tore down the stream and the
	// caller should retry.
	TryAgainLater
)

var rpcErrorCodeNames = map[RpcErrorCode]string{
	ResourceUnavailable:      "RESOURCE_UNAVAILABLE",
	InvalidRequest:           "INVALID_REQUEST",
	Internal:                 "INTERNAL",
	ConnectionNotInitialized: "CONNECTION_IS_NOT_INITIALIZED",
	TryAgainLater:            "TRY_AGAIN_LATER",
}

func (c RpcErrorCode) String() string {
	if name, ok := rpcErrorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// RpcError is the error type returned at the boundary of the core. The
// original transport message is kept in Message.
type RpcError struct {
	Code    RpcErrorCode
	Message string
}

func NewRpcError(code RpcErrorCode, format string, args ...interface{}) *RpcError {
	return &RpcError{code, fmt.Sprintf(format, args...)}
}

func (e *RpcError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsRpcError returns whether err wraps an RpcError with the given code.
func IsRpcError(err error, code RpcErrorCode) bool {
	var rpcErr *RpcError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == code
	}
	return false
}

// RpcErrorCodeOf returns the code of the wrapped RpcError, if any.
func RpcErrorCodeOf(err error) (RpcErrorCode, bool) {
	var rpcErr *RpcError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code, true
	}
	return 0, false
}

var (
	// ErrUnknownNetwork ...
	ErrUnknownNetwork = errors.New("network not found")
	// ErrInvalidNetworkName ...
	ErrInvalidNetworkName = errors.New("network name must not be empty")
	// ErrInvalidNetworkGroup ...
	ErrInvalidNetworkGroup = errors.New("network group must not be empty")
	// ErrInvalidConnectionType is returned for network params whose transport
	// kind is neither graphql nor jrpc.
	ErrInvalidConnectionType = errors.New("unsupported connection type")
	// ErrMissingEndpoints ...
	ErrMissingEndpoints = errors.New("network must have at least one endpoint")
	// ErrNotCustomNetwork is returned when trying to edit a built-in preset.
	ErrNotCustomNetwork = errors.New("network is not a custom one")
	// ErrInvalidLt ...
	ErrInvalidLt = errors.New("invalid transaction logical time")
	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.New("invalid address")
)
