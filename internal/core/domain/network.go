package domain

import (
	"net/url"
	"sort"
	"strings"
)

const (
	// ConnectionTypeGraphQL ...
	ConnectionTypeGraphQL = "graphql"
	// ConnectionTypeJrpc ...
	ConnectionTypeJrpc = "jrpc"

	// CustomNetworkStartID is the first id assigned to user defined networks.
	CustomNetworkStartID = 1000
	// DefaultConnectionID is the preset selected when nothing was persisted.
	DefaultConnectionID = 0
	// DefaultMaxLatency is the latency in milliseconds under which an endpoint
	// is picked straight away.
	DefaultMaxLatency = 60000
	// DefaultLatencyDetectionInterval in milliseconds.
	DefaultLatencyDetectionInterval = 60000

	// ZeroAddress is used to test a freshly created connection.
	ZeroAddress = "-1:0000000000000000000000000000000000000000000000000000000000000000"
)

// GqlParams holds the params of a graphql connection.
type GqlParams struct {
	Endpoints                []string `json:"endpoints"`
	LatencyDetectionInterval int64    `json:"latencyDetectionInterval"`
	MaxLatency               int64    `json:"maxLatency,omitempty"`
	Local                    bool     `json:"local"`
}

// JrpcParams holds the params of a jrpc connection.
type JrpcParams struct {
	Endpoint string `json:"endpoint"`
}

// NetworkConfig holds the optional explorer and token manifest urls.
type NetworkConfig struct {
	ExplorerBaseURL   string `json:"explorerBaseUrl,omitempty"`
	TokensManifestURL string `json:"tokensManifestUrl,omitempty"`
}

// ConnectionDataItem is a network preset. The transport specific params are
// in Gql or Jrpc depending on Type.
type ConnectionDataItem struct {
	ID     int           `json:"id"`
	Name   string        `json:"name"`
	Group  string        `json:"group"`
	Type   string        `json:"type"`
	Gql    *GqlParams    `json:"gql,omitempty"`
	Jrpc   *JrpcParams   `json:"jrpc,omitempty"`
	Config NetworkConfig `json:"config"`
}

func (c ConnectionDataItem) IsCustom() bool {
	return c.ID >= CustomNetworkStartID
}

// Validate checks the params of a network to be added by the user.
func (c ConnectionDataItem) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrInvalidNetworkName
	}
	if strings.TrimSpace(c.Group) == "" {
		return ErrInvalidNetworkGroup
	}

	switch c.Type {
	case ConnectionTypeGraphQL:
		if c.Gql == nil || len(c.Gql.Endpoints) <= 0 {
			return ErrMissingEndpoints
		}
	case ConnectionTypeJrpc:
		if c.Jrpc == nil || c.Jrpc.Endpoint == "" {
			return ErrMissingEndpoints
		}
		if _, err := url.ParseRequestURI(c.Jrpc.Endpoint); err != nil {
			return ErrMissingEndpoints
		}
	default:
		return ErrInvalidConnectionType
	}
	return nil
}

var networkPresets = map[int]ConnectionDataItem{
	0: {
		Name:  "Mainnet (ADNL)",
		Group: "mainnet",
		Type:  ConnectionTypeJrpc,
		Jrpc: &JrpcParams{
			Endpoint: "https://extension-api.broxus.com/rpc",
		},
		Config: NetworkConfig{
			ExplorerBaseURL: "https://everscan.io",
		},
	},
	1: {
		Name:  "Mainnet (GQL)",
		Group: "mainnet",
		Type:  ConnectionTypeGraphQL,
		Gql: &GqlParams{
			Endpoints: []string{
				"eri01.main.everos.dev",
				"gra01.main.everos.dev",
				"gra02.main.everos.dev",
				"lim01.main.everos.dev",
				"rbx01.main.everos.dev",
			},
			LatencyDetectionInterval: DefaultLatencyDetectionInterval,
		},
		Config: NetworkConfig{
			ExplorerBaseURL: "https://everscan.io",
		},
	},
	4: {
		Name:  "Testnet",
		Group: "testnet",
		Type:  ConnectionTypeGraphQL,
		Gql: &GqlParams{
			Endpoints: []string{
				"eri01.net.everos.dev",
				"rbx01.net.everos.dev",
				"gra01.net.everos.dev",
			},
			LatencyDetectionInterval: DefaultLatencyDetectionInterval,
		},
		Config: NetworkConfig{
			ExplorerBaseURL: "https://testnet.everscan.io",
		},
	},
	5: {
		Name:  "fld.ton.dev",
		Group: "fld",
		Type:  ConnectionTypeGraphQL,
		Gql: &GqlParams{
			Endpoints:                []string{"gql.custler.net"},
			LatencyDetectionInterval: DefaultLatencyDetectionInterval,
		},
		Config: NetworkConfig{
			ExplorerBaseURL: "https://fld.ever.live",
		},
	},
	100: {
		Name:  "Local node",
		Group: "localnet",
		Type:  ConnectionTypeGraphQL,
		Gql: &GqlParams{
			Endpoints:                []string{"127.0.0.1"},
			LatencyDetectionInterval: DefaultLatencyDetectionInterval,
			Local:                    true,
		},
	},
}

var zerostateAddresses = map[string][]string{
	"mainnet": {
		"-1:7777777777777777777777777777777777777777777777777777777777777777",
		"-1:8888888888888888888888888888888888888888888888888888888888888888",
		"-1:9999999999999999999999999999999999999999999999999999999999999999",
	},
	"testnet": {
		"-1:7777777777777777777777777777777777777777777777777777777777777777",
	},
	"fld": {
		"-1:7777777777777777777777777777777777777777777777777777777777777777",
		"-1:8888888888888888888888888888888888888888888888888888888888888888",
		"-1:9999999999999999999999999999999999999999999999999999999999999999",
	},
}

// GetPreset returns a copy of the built-in network with the given id.
func GetPreset(id int) (ConnectionDataItem, bool) {
	preset, ok := networkPresets[id]
	if !ok {
		return ConnectionDataItem{}, false
	}
	preset.ID = id
	return preset, true
}

// Presets returns the built-in networks sorted by id.
func Presets() []ConnectionDataItem {
	presets := make([]ConnectionDataItem, 0, len(networkPresets))
	for id := range networkPresets {
		preset, _ := GetPreset(id)
		presets = append(presets, preset)
	}
	sortNetworks(presets)
	return presets
}

// MergeNetworks merges the built-in presets with the custom networks. A
// custom entry takes precedence over a preset with the same id.
func MergeNetworks(custom []ConnectionDataItem) []ConnectionDataItem {
	byID := make(map[int]ConnectionDataItem)
	for _, preset := range Presets() {
		byID[preset.ID] = preset
	}
	for _, item := range custom {
		byID[item.ID] = item
	}

	networks := make([]ConnectionDataItem, 0, len(byID))
	for _, item := range byID {
		networks = append(networks, item)
	}
	sortNetworks(networks)
	return networks
}

// FindNetwork looks up a network by id among presets and custom networks.
func FindNetwork(custom []ConnectionDataItem, id int) (ConnectionDataItem, bool) {
	for _, item := range MergeNetworks(custom) {
		if item.ID == id {
			return item, true
		}
	}
	return ConnectionDataItem{}, false
}

// AvailableNetworksGroup returns first followed by every other known network
// of the same group, in id order.
func AvailableNetworksGroup(
	first ConnectionDataItem, custom []ConnectionDataItem,
) []ConnectionDataItem {
	group := []ConnectionDataItem{first}
	for _, item := range MergeNetworks(custom) {
		if item.ID != first.ID && item.Group == first.Group {
			group = append(group, item)
		}
	}
	return group
}

// NextCustomNetworkID returns max(existing custom id)+1, or
// CustomNetworkStartID if there are none.
func NextCustomNetworkID(custom []ConnectionDataItem) int {
	next := CustomNetworkStartID
	for _, item := range custom {
		if item.ID >= next {
			next = item.ID + 1
		}
	}
	return next
}

// IsFromZerostate returns whether address is one of the well-known
// zero-state addresses of the given network group.
func IsFromZerostate(group, address string) bool {
	for _, addr := range zerostateAddresses[group] {
		if addr == address {
			return true
		}
	}
	return false
}

func sortNetworks(networks []ConnectionDataItem) {
	sort.SliceStable(networks, func(i, j int) bool {
		return networks[i].ID < networks[j].ID
	})
}
