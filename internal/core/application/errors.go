package application

import (
	"errors"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
)

var (
	// ErrAlreadySynced is returned when calling InitialSync more than once.
	ErrAlreadySynced = errors.New("initial sync already done")
	// ErrNoSuitableConnection is returned when every network of a group
	// failed to connect.
	ErrNoSuitableConnection = errors.New("no suitable connection found")
	// ErrConnectionTestCancelled is returned when a newer network switch
	// interrupted a connection test.
	ErrConnectionTestCancelled = errors.New("connection test cancelled")
	// ErrSwitchReleased is returned by a switch handle already used.
	ErrSwitchReleased = errors.New("network switch handle already released")
	// ErrSelectedNetworkDeletion ...
	ErrSelectedNetworkDeletion = errors.New("can't delete the selected network")
	// ErrSelectedNetworkReset ...
	ErrSelectedNetworkReset = errors.New(
		"can't reset custom networks while one of them is selected",
	)
	// ErrNilListener ...
	ErrNilListener = errors.New("listener must not be nil")
	// ErrUnknownContractType ...
	ErrUnknownContractType = errors.New("unknown contract type")
)

func errConnectionNotInitialized() error {
	return domain.NewRpcError(
		domain.ConnectionNotInitialized, "Connection is not initialized",
	)
}

func errSubscriptionNotFound(address string) error {
	return domain.NewRpcError(
		domain.ResourceUnavailable, "There is no subscription for address %s", address,
	)
}

func errTokenSubscriptionNotFound(address, root string) error {
	return domain.NewRpcError(
		domain.ResourceUnavailable,
		"There is no token subscription for owner %s, root token contract %s",
		address, root,
	)
}

func errMessageRejected() error {
	return domain.NewRpcError(
		domain.ResourceUnavailable, "The request was rejected; please try again",
	)
}

func errMessageExpired() error {
	return domain.NewRpcError(domain.Internal, "Message expired")
}

// wrapTransportError turns a raw transport failure into an Internal error
// keeping its message.
func wrapTransportError(err error) error {
	if err == nil {
		return nil
	}
	var rpcErr *domain.RpcError
	if errors.As(err, &rpcErr) {
		return err
	}
	return domain.NewRpcError(domain.Internal, "%s", err.Error())
}
