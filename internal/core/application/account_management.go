package application

import (
	"context"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

func (s *accountService) CreateAccount(
	ctx context.Context, params domain.AccountToAdd,
) (*domain.AssetsList, error) {
	accounts, err := s.CreateAccounts(ctx, []domain.AccountToAdd{params})
	if err != nil {
		return nil, err
	}
	account := accounts[0]

	s.stateLock.Lock()
	s.state.SelectedAccountAddress = account.Address()
	s.stateLock.Unlock()

	if err := s.save(ctx, ports.SelectedAccountAddressKey, account.Address()); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *accountService) CreateAccounts(
	ctx context.Context, params []domain.AccountToAdd,
) ([]domain.AssetsList, error) {
	accounts := make([]domain.AssetsList, 0, len(params))
	for _, p := range params {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		address, err := s.engine.ComputeWalletAddress(
			ctx, p.Workchain, p.PublicKey, p.ContractType,
		)
		if err != nil {
			return nil, domain.NewRpcError(domain.InvalidRequest, "%s", err)
		}
		accounts = append(accounts, domain.AssetsList{
			Name: p.Name,
			TonWallet: domain.TonWallet{
				Address:      address,
				PublicKey:    p.PublicKey,
				ContractType: p.ContractType,
			},
			AdditionalAssets: make(map[string]domain.AdditionalAssets),
		})
	}

	if err := s.accounts.AddAccounts(ctx, accounts); err != nil {
		return nil, domain.NewRpcError(domain.InvalidRequest, "%s", err)
	}

	s.stateLock.Lock()
	for _, account := range accounts {
		s.state.AccountEntries[account.Address()] = account
		s.state.AccountsVisibility[account.Address()] = true
	}
	visibility := cloneMap(s.state.AccountsVisibility)
	s.stateLock.Unlock()

	if err := s.save(ctx, ports.AccountsVisibilityKey, visibility); err != nil {
		return nil, err
	}
	s.publish(Event{Type: EventStateChanged})

	if err := s.StartSubscriptions(ctx); err != nil {
		return nil, domain.NewRpcError(domain.InvalidRequest, "%s", err)
	}
	return accounts, nil
}

func (s *accountService) AddExternalAccount(
	ctx context.Context, address, publicKey, externalPublicKey string,
) error {
	s.stateLock.Lock()
	s.state.ExternalAccounts = domain.AddExternalAccount(
		s.state.ExternalAccounts, address, publicKey, externalPublicKey,
	)
	externalAccounts := cloneExternalAccounts(s.state.ExternalAccounts)
	s.stateLock.Unlock()

	if err := s.save(ctx, ports.ExternalAccountsKey, externalAccounts); err != nil {
		return err
	}
	s.publish(Event{Type: EventStateChanged, Address: address})
	return nil
}

func (s *accountService) SelectAccount(ctx context.Context, address string) error {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()

	s.stateLock.Lock()
	if _, ok := s.state.AccountEntries[address]; !ok {
		s.stateLock.Unlock()
		return nil
	}
	s.state.SelectedAccountAddress = address
	s.stateLock.Unlock()

	if err := s.save(ctx, ports.SelectedAccountAddressKey, address); err != nil {
		return err
	}
	s.publish(Event{Type: EventStateChanged, Address: address})
	return nil
}

func (s *accountService) RemoveAccount(ctx context.Context, address string) error {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()

	return s.removeAccount(ctx, address)
}

func (s *accountService) RemoveAccounts(ctx context.Context, addresses []string) error {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()

	for _, address := range addresses {
		if err := s.removeAccount(ctx, address); err != nil {
			return err
		}
	}
	return nil
}

func (s *accountService) removeAccount(ctx context.Context, address string) error {
	if err := s.accounts.RemoveAccounts(ctx, []string{address}); err != nil {
		return domain.NewRpcError(domain.InvalidRequest, "%s", err)
	}

	if wallet, ok := s.walletSubs[address]; ok {
		delete(s.walletSubs, address)
		wallet.Stop()
	}
	if tokens, ok := s.tokenSubs[address]; ok {
		delete(s.tokenSubs, address)
		var g errgroup.Group
		for _, token := range tokens {
			token := token
			g.Go(func() error {
				token.Stop()
				return nil
			})
		}
		_ = g.Wait()
	}
	s.updateSubscriptionsMetrics()

	if n := s.requests.rejectAddress(address, errMessageRejected()); n > 0 {
		s.metrics.IncSettledMessages("rejected")
		s.metrics.SetPendingMessages(s.requests.count())
	}

	s.stateLock.Lock()
	s.state.purgeAccount(address)
	selectionChanged := false
	if s.state.SelectedAccountAddress == address {
		s.state.SelectedAccountAddress = firstAddress(s.state.AccountEntries)
		selectionChanged = true
	}
	selected := s.state.SelectedAccountAddress
	s.stateLock.Unlock()

	s.watermarkLock.Lock()
	_, hadWatermark := s.lastTransactions[address]
	_, hadTokenWatermarks := s.lastTokenTransactions[address]
	delete(s.lastTransactions, address)
	delete(s.lastTokenTransactions, address)
	if hadWatermark || hadTokenWatermarks {
		s.persistWatermarks(ctx)
	}
	s.watermarkLock.Unlock()

	if selectionChanged {
		if err := s.save(ctx, ports.SelectedAccountAddressKey, selected); err != nil {
			return err
		}
	}

	s.publish(Event{Type: EventStateChanged, Address: address})
	return nil
}

func (s *accountService) RenameAccount(ctx context.Context, address, name string) error {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()

	account, err := s.accounts.RenameAccount(ctx, address, name)
	if err != nil {
		return domain.NewRpcError(domain.InvalidRequest, "%s", err)
	}

	s.stateLock.Lock()
	s.state.AccountEntries[address] = *account
	s.stateLock.Unlock()

	s.publish(Event{Type: EventStateChanged, Address: address})
	return nil
}

func (s *accountService) UpdateAccountVisibility(
	ctx context.Context, address string, visible bool,
) error {
	s.stateLock.Lock()
	s.state.AccountsVisibility[address] = visible
	visibility := cloneMap(s.state.AccountsVisibility)
	s.stateLock.Unlock()

	if err := s.save(ctx, ports.AccountsVisibilityKey, visibility); err != nil {
		return err
	}
	s.publish(Event{Type: EventStateChanged, Address: address})
	return nil
}

func (s *accountService) SelectMasterKey(ctx context.Context, masterKey string) error {
	s.stateLock.Lock()
	s.state.SelectedMasterKey = masterKey
	s.stateLock.Unlock()

	if err := s.save(ctx, ports.SelectedMasterKeyKey, masterKey); err != nil {
		return err
	}
	s.publish(Event{Type: EventStateChanged})
	return nil
}

func (s *accountService) UpdateMasterKeyName(
	ctx context.Context, masterKey, name string,
) error {
	s.stateLock.Lock()
	s.state.MasterKeysNames[masterKey] = name
	names := cloneMap(s.state.MasterKeysNames)
	s.stateLock.Unlock()

	if err := s.save(ctx, ports.MasterKeysNamesKey, names); err != nil {
		return err
	}
	s.publish(Event{Type: EventStateChanged})
	return nil
}

func (s *accountService) UpdateRecentMasterKey(
	ctx context.Context, entry domain.KeyStoreEntry,
) error {
	s.stateLock.Lock()
	s.state.RecentMasterKeys = domain.UpdateRecentMasterKeys(
		s.state.RecentMasterKeys, entry,
	)
	recent := append([]domain.KeyStoreEntry{}, s.state.RecentMasterKeys...)
	s.stateLock.Unlock()

	if err := s.save(ctx, ports.RecentMasterKeysKey, recent); err != nil {
		return err
	}
	s.publish(Event{Type: EventStateChanged})
	return nil
}
