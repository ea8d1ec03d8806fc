package gql

import "errors"

var (
	// ErrNoEndpointAvailable is returned when no endpoint answered the latency
	// probes after all the attempts.
	ErrNoEndpointAvailable = errors.New("no available endpoint found")
	// ErrNoEndpointResponded is returned by a single round of latency probes.
	ErrNoEndpointResponded = errors.New("no endpoint responded")
	// ErrTransportClosed is returned after the transport has been freed.
	ErrTransportClosed = errors.New("transport is closed")
	// ErrContractNotDeployed is returned when a token contract has no state.
	ErrContractNotDeployed = errors.New("contract is not deployed")
	// ErrMissingDecoder ...
	ErrMissingDecoder = errors.New("missing token decoder")
)
