package httpinterface

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/evrwallet/evrwallet-daemon/internal/core/application"
	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	addressArg   = "address"
	rootArg      = "root"
	networkIDArg = "id"
	masterKeyArg = "key"

	maxImportSize = 32 << 20
)

type handler struct {
	wallet     application.WalletService
	accounts   application.AccountService
	connection application.ConnectionService
	streams    *streamHub
}

// NewHandler returns the router serving the REST api under /v1, the event
// stream at /v1/events and the prometheus metrics at /metrics. With a nil
// gatherer the default prometheus registry is exposed.
func NewHandler(
	wallet application.WalletService, gatherer prometheus.Gatherer,
) http.Handler {
	h, _ := newHandler(wallet, gatherer)
	return h
}

func newHandler(
	wallet application.WalletService, gatherer prometheus.Gatherer,
) (*mux.Router, *streamHub) {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	h := &handler{
		wallet:     wallet,
		accounts:   wallet.Accounts(),
		connection: wallet.Connection(),
		streams:    newStreamHub(wallet),
	}

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/events", h.streams.serve).Methods(http.MethodGet)

	v1.HandleFunc("/state", h.getState).Methods(http.MethodGet)
	v1.HandleFunc("/logout", h.logOut).Methods(http.MethodPost)
	v1.HandleFunc("/polling", h.setPolling).Methods(http.MethodPut)
	v1.HandleFunc("/storage", h.exportStorage).Methods(http.MethodGet)
	v1.HandleFunc("/storage", h.importStorage).Methods(http.MethodPost)

	// networks
	v1.HandleFunc("/network", h.changeNetwork).Methods(http.MethodPut)
	v1.HandleFunc("/networks", h.getNetworks).Methods(http.MethodGet)
	v1.HandleFunc("/networks", h.addCustomNetwork).Methods(http.MethodPost)
	v1.HandleFunc("/networks", h.resetCustomNetworks).Methods(http.MethodDelete)
	v1.HandleFunc(fmt.Sprintf("/networks/{%s}", networkIDArg), h.getNetwork).Methods(http.MethodGet)
	v1.HandleFunc(fmt.Sprintf("/networks/{%s}", networkIDArg), h.updateCustomNetwork).Methods(http.MethodPut)
	v1.HandleFunc(fmt.Sprintf("/networks/{%s}", networkIDArg), h.deleteCustomNetwork).Methods(http.MethodDelete)

	// accounts
	account := fmt.Sprintf("/accounts/{%s}", addressArg)
	v1.HandleFunc("/accounts", h.getAccounts).Methods(http.MethodGet)
	v1.HandleFunc("/accounts", h.createAccounts).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/external", h.addExternalAccount).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/remove", h.removeAccounts).Methods(http.MethodPost)
	v1.HandleFunc(account, h.getAccount).Methods(http.MethodGet)
	v1.HandleFunc(account, h.updateAccount).Methods(http.MethodPut)
	v1.HandleFunc(account, h.removeAccount).Methods(http.MethodDelete)
	v1.HandleFunc(account+"/select", h.selectAccount).Methods(http.MethodPost)
	v1.HandleFunc(account+"/tokens", h.updateTokenWallets).Methods(http.MethodPut)
	v1.HandleFunc(account+"/multisig", h.getMultisigPending).Methods(http.MethodGet)
	v1.HandleFunc(account+"/fees", h.estimateFees).Methods(http.MethodPost)
	v1.HandleFunc(account+"/messages", h.sendMessage).Methods(http.MethodPost)
	v1.HandleFunc(account+"/preload", h.preloadTransactions).Methods(http.MethodPost)
	v1.HandleFunc(
		fmt.Sprintf("%s/tokens/{%s}/preload", account, rootArg), h.preloadTokenTransactions,
	).Methods(http.MethodPost)

	// tokens
	v1.HandleFunc(fmt.Sprintf("/tokens/{%s}", rootArg), h.getTokenRootDetails).Methods(http.MethodGet)
	v1.HandleFunc(
		fmt.Sprintf("/token-wallets/{%s}/balance", addressArg), h.getTokenWalletBalance,
	).Methods(http.MethodGet)

	// master keys
	v1.HandleFunc("/master-keys/recent", h.updateRecentMasterKey).Methods(http.MethodPost)
	v1.HandleFunc(fmt.Sprintf("/master-keys/{%s}", masterKeyArg), h.updateMasterKeyName).Methods(http.MethodPut)
	v1.HandleFunc(fmt.Sprintf("/master-keys/{%s}/select", masterKeyArg), h.selectMasterKey).Methods(http.MethodPost)

	return r, h.streams
}

func (h *handler) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.wallet.GetState())
}

func (h *handler) logOut(w http.ResponseWriter, r *http.Request) {
	if err := h.wallet.LogOut(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) setPolling(w http.ResponseWriter, r *http.Request) {
	var req PollingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Intensive {
		h.accounts.EnableIntensivePolling()
	} else {
		h.accounts.DisableIntensivePolling()
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) exportStorage(w http.ResponseWriter, r *http.Request) {
	data, err := h.wallet.ExportStorage(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *handler) importStorage(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %s", errInvalidBody, err))
		return
	}
	imported, err := h.wallet.ImportStorage(r.Context(), data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ImportStorageResponse{imported})
}

func (h *handler) changeNetwork(w http.ResponseWriter, r *http.Request) {
	var req ChangeNetworkRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.wallet.ChangeNetwork(r.Context(), req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.connection.GetState())
}

func (h *handler) getNetworks(w http.ResponseWriter, r *http.Request) {
	networks, err := h.connection.GetAvailableNetworks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, networks)
}

func (h *handler) getNetwork(w http.ResponseWriter, r *http.Request) {
	id, err := networkID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	network, err := h.connection.FindNetwork(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, network)
}

func (h *handler) addCustomNetwork(w http.ResponseWriter, r *http.Request) {
	var network domain.ConnectionDataItem
	if err := decodeBody(r, &network); err != nil {
		writeError(w, err)
		return
	}
	added, err := h.connection.AddCustomNetwork(r.Context(), network)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (h *handler) updateCustomNetwork(w http.ResponseWriter, r *http.Request) {
	id, err := networkID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var network domain.ConnectionDataItem
	if err := decodeBody(r, &network); err != nil {
		writeError(w, err)
		return
	}
	network.ID = id
	if err := h.connection.UpdateCustomNetwork(r.Context(), network); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, network)
}

func (h *handler) deleteCustomNetwork(w http.ResponseWriter, r *http.Request) {
	id, err := networkID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.connection.DeleteCustomNetwork(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) resetCustomNetworks(w http.ResponseWriter, r *http.Request) {
	if err := h.connection.ResetCustomNetworks(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) getAccounts(w http.ResponseWriter, r *http.Request) {
	state := h.accounts.GetState()
	accounts := make([]domain.AssetsList, 0, len(state.AccountEntries))
	for _, account := range state.AccountEntries {
		accounts = append(accounts, account)
	}
	domain.SortAccounts(accounts)
	writeJSON(w, http.StatusOK, accounts)
}

func (h *handler) getAccount(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)[addressArg]
	account, ok := h.accounts.GetState().AccountEntries[address]
	if !ok {
		writeError(w, domain.NewRpcError(
			domain.ResourceUnavailable, "account %s not found", address,
		))
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *handler) createAccounts(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Accounts) == 1 {
		account, err := h.accounts.CreateAccount(r.Context(), req.Accounts[0])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, []domain.AssetsList{*account})
		return
	}
	accounts, err := h.accounts.CreateAccounts(r.Context(), req.Accounts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, accounts)
}

func (h *handler) addExternalAccount(w http.ResponseWriter, r *http.Request) {
	var req AddExternalAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.accounts.AddExternalAccount(
		r.Context(), req.Address, req.PublicKey, req.ExternalPublicKey,
	); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) removeAccounts(w http.ResponseWriter, r *http.Request) {
	var req RemoveAccountsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.accounts.RemoveAccounts(r.Context(), req.Addresses); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)[addressArg]
	var req UpdateAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name != nil {
		if err := h.accounts.RenameAccount(r.Context(), address, *req.Name); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Visible != nil {
		if err := h.accounts.UpdateAccountVisibility(
			r.Context(), address, *req.Visible,
		); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) removeAccount(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)[addressArg]
	if err := h.accounts.RemoveAccount(r.Context(), address); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) selectAccount(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)[addressArg]
	if err := h.accounts.SelectAccount(r.Context(), address); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) updateTokenWallets(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)[addressArg]
	var req UpdateTokenWalletsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.accounts.UpdateTokenWallets(
		r.Context(), address, req.RootTokenContracts,
	); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) getMultisigPending(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)[addressArg]
	pending, err := h.accounts.GetMultisigPendingTransactions(r.Context(), address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (h *handler) estimateFees(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)[addressArg]
	var req EstimateFeesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	fees, err := h.accounts.EstimateFees(r.Context(), address, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EstimateFeesResponse{fees})
}

// sendMessage blocks until the message is settled or the client goes away.
func (h *handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)[addressArg]
	var req SendMessageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	tx, err := h.accounts.SendMessage(r.Context(), address, req.Message, req.Info)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *handler) preloadTransactions(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)[addressArg]
	var req PreloadRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.accounts.PreloadTransactions(r.Context(), address, req.FromLt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) preloadTokenTransactions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req PreloadRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.accounts.PreloadTokenTransactions(
		r.Context(), vars[addressArg], vars[rootArg], req.FromLt,
	); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) getTokenRootDetails(w http.ResponseWriter, r *http.Request) {
	root := mux.Vars(r)[rootArg]
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeError(w, fmt.Errorf("%w: missing owner", errInvalidParam))
		return
	}
	details, err := h.accounts.GetTokenRootDetails(r.Context(), root, owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *handler) getTokenWalletBalance(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)[addressArg]
	balance, err := h.accounts.GetTokenWalletBalance(r.Context(), address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenBalanceResponse{balance})
}

func (h *handler) updateRecentMasterKey(w http.ResponseWriter, r *http.Request) {
	var entry domain.KeyStoreEntry
	if err := decodeBody(r, &entry); err != nil {
		writeError(w, err)
		return
	}
	if err := h.accounts.UpdateRecentMasterKey(r.Context(), entry); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) updateMasterKeyName(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)[masterKeyArg]
	var req MasterKeyNameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.accounts.UpdateMasterKeyName(r.Context(), key, req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) selectMasterKey(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)[masterKeyArg]
	if err := h.accounts.SelectMasterKey(r.Context(), key); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func networkID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)[networkIDArg])
	if err != nil {
		return 0, fmt.Errorf("%w: network id must be a number", errInvalidParam)
	}
	return id, nil
}
