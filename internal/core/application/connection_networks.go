package application

import (
	"context"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
)

func (s *connectionService) GetAvailableNetworks(
	ctx context.Context,
) ([]domain.ConnectionDataItem, error) {
	return domain.MergeNetworks(s.getCustomNetworks()), nil
}

func (s *connectionService) FindNetwork(
	ctx context.Context, id int,
) (domain.ConnectionDataItem, error) {
	network, ok := domain.FindNetwork(s.getCustomNetworks(), id)
	if !ok {
		return domain.ConnectionDataItem{}, domain.ErrUnknownNetwork
	}
	return network, nil
}

// AddCustomNetwork assigns the next custom id to network and persists it.
func (s *connectionService) AddCustomNetwork(
	ctx context.Context, network domain.ConnectionDataItem,
) (domain.ConnectionDataItem, error) {
	if err := network.Validate(); err != nil {
		return domain.ConnectionDataItem{}, err
	}

	s.networksLock.Lock()
	defer s.networksLock.Unlock()

	network.ID = domain.NextCustomNetworkID(s.customNetworks)
	custom := append(cloneNetworks(s.customNetworks), network)
	if err := s.saveCustomNetworks(ctx, custom); err != nil {
		return domain.ConnectionDataItem{}, err
	}
	return network, nil
}

// UpdateCustomNetwork replaces a custom network, or overrides a preset with
// the same id.
func (s *connectionService) UpdateCustomNetwork(
	ctx context.Context, network domain.ConnectionDataItem,
) error {
	if err := network.Validate(); err != nil {
		return err
	}

	s.networksLock.Lock()
	defer s.networksLock.Unlock()

	if _, ok := domain.FindNetwork(s.customNetworks, network.ID); !ok {
		return domain.ErrUnknownNetwork
	}

	custom := cloneNetworks(s.customNetworks)
	found := false
	for i, item := range custom {
		if item.ID == network.ID {
			custom[i] = network
			found = true
			break
		}
	}
	if !found {
		custom = append(custom, network)
	}
	if err := s.saveCustomNetworks(ctx, custom); err != nil {
		return err
	}

	s.stateLock.Lock()
	if s.selected.ID == network.ID {
		s.selected = network
	}
	s.stateLock.Unlock()
	return nil
}

// DeleteCustomNetwork removes a custom network. The selected network can't
// be removed.
func (s *connectionService) DeleteCustomNetwork(ctx context.Context, id int) error {
	s.networksLock.Lock()
	defer s.networksLock.Unlock()

	index := -1
	for i, item := range s.customNetworks {
		if item.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		if _, ok := domain.GetPreset(id); ok {
			return domain.ErrNotCustomNetwork
		}
		return domain.ErrUnknownNetwork
	}
	if s.GetState().SelectedConnection.ID == id {
		return ErrSelectedNetworkDeletion
	}

	custom := cloneNetworks(s.customNetworks)
	custom = append(custom[:index], custom[index+1:]...)
	return s.saveCustomNetworks(ctx, custom)
}

// ResetCustomNetworks removes every custom network, unless one of them is
// selected.
func (s *connectionService) ResetCustomNetworks(ctx context.Context) error {
	s.networksLock.Lock()
	defer s.networksLock.Unlock()

	selectedID := s.GetState().SelectedConnection.ID
	for _, item := range s.customNetworks {
		if item.ID == selectedID {
			return ErrSelectedNetworkReset
		}
	}

	if err := s.storage.Remove(ctx, ports.CustomNetworksKey); err != nil {
		return err
	}
	s.customNetworks = nil
	return nil
}

func (s *connectionService) loadCustomNetworks(
	ctx context.Context,
) ([]domain.ConnectionDataItem, error) {
	custom := make([]domain.ConnectionDataItem, 0)
	if _, err := s.storage.Get(ctx, ports.CustomNetworksKey, &custom); err != nil {
		return nil, err
	}

	s.networksLock.Lock()
	s.customNetworks = custom
	s.networksLock.Unlock()

	return cloneNetworks(custom), nil
}

func (s *connectionService) saveCustomNetworks(
	ctx context.Context, custom []domain.ConnectionDataItem,
) error {
	if err := s.storage.Set(ctx, ports.CustomNetworksKey, custom); err != nil {
		return err
	}
	s.customNetworks = custom
	return nil
}

func (s *connectionService) getCustomNetworks() []domain.ConnectionDataItem {
	s.networksLock.Lock()
	defer s.networksLock.Unlock()
	return cloneNetworks(s.customNetworks)
}

func cloneNetworks(networks []domain.ConnectionDataItem) []domain.ConnectionDataItem {
	return append([]domain.ConnectionDataItem{}, networks...)
}
