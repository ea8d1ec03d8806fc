package domain_test

import (
	"testing"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestMergeNetworks(t *testing.T) {
	t.Parallel()

	custom := []domain.ConnectionDataItem{
		{
			ID:    4,
			Name:  "My testnet",
			Group: "testnet",
			Type:  domain.ConnectionTypeJrpc,
			Jrpc:  &domain.JrpcParams{Endpoint: "https://rpc.example.com"},
		},
		{
			ID:    1000,
			Name:  "Custom",
			Group: "custom",
			Type:  domain.ConnectionTypeJrpc,
			Jrpc:  &domain.JrpcParams{Endpoint: "https://custom.example.com"},
		},
	}

	networks := domain.MergeNetworks(custom)
	require.Len(t, networks, len(domain.Presets())+1)

	ids := make([]int, 0, len(networks))
	for _, n := range networks {
		ids = append(ids, n.ID)
	}
	require.Equal(t, []int{0, 1, 4, 5, 100, 1000}, ids)

	testnet, ok := domain.FindNetwork(custom, 4)
	require.True(t, ok)
	require.Equal(t, "My testnet", testnet.Name)

	_, ok = domain.FindNetwork(custom, 42)
	require.False(t, ok)
}

func TestAvailableNetworksGroup(t *testing.T) {
	t.Parallel()

	gql, ok := domain.GetPreset(1)
	require.True(t, ok)

	group := domain.AvailableNetworksGroup(gql, nil)
	require.Len(t, group, 2)
	require.Equal(t, 1, group[0].ID)
	require.Equal(t, 0, group[1].ID)

	custom := []domain.ConnectionDataItem{{
		ID:    1001,
		Name:  "Mainnet mirror",
		Group: "mainnet",
		Type:  domain.ConnectionTypeGraphQL,
		Gql:   &domain.GqlParams{Endpoints: []string{"mirror.example.com"}},
	}}
	group = domain.AvailableNetworksGroup(gql, custom)
	require.Len(t, group, 3)
	require.Equal(t, 1001, group[2].ID)
}

func TestNextCustomNetworkID(t *testing.T) {
	t.Parallel()

	require.Equal(t, domain.CustomNetworkStartID, domain.NextCustomNetworkID(nil))
	require.Equal(t, 1006, domain.NextCustomNetworkID([]domain.ConnectionDataItem{
		{ID: 1003}, {ID: 1005}, {ID: 1000},
	}))
}

func TestConnectionDataItemValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		item        domain.ConnectionDataItem
		expectedErr error
	}{
		{
			name: "valid_gql",
			item: domain.ConnectionDataItem{
				Name:  "a",
				Group: "g",
				Type:  domain.ConnectionTypeGraphQL,
				Gql:   &domain.GqlParams{Endpoints: []string{"host"}},
			},
		},
		{
			name: "valid_jrpc",
			item: domain.ConnectionDataItem{
				Name:  "a",
				Group: "g",
				Type:  domain.ConnectionTypeJrpc,
				Jrpc:  &domain.JrpcParams{Endpoint: "https://host/rpc"},
			},
		},
		{
			name:        "missing_name",
			item:        domain.ConnectionDataItem{Group: "g"},
			expectedErr: domain.ErrInvalidNetworkName,
		},
		{
			name:        "missing_group",
			item:        domain.ConnectionDataItem{Name: "a"},
			expectedErr: domain.ErrInvalidNetworkGroup,
		},
		{
			name:        "unknown_type",
			item:        domain.ConnectionDataItem{Name: "a", Group: "g", Type: "ws"},
			expectedErr: domain.ErrInvalidConnectionType,
		},
		{
			name: "no_endpoints",
			item: domain.ConnectionDataItem{
				Name:  "a",
				Group: "g",
				Type:  domain.ConnectionTypeGraphQL,
				Gql:   &domain.GqlParams{},
			},
			expectedErr: domain.ErrMissingEndpoints,
		},
		{
			name: "bad_jrpc_endpoint",
			item: domain.ConnectionDataItem{
				Name:  "a",
				Group: "g",
				Type:  domain.ConnectionTypeJrpc,
				Jrpc:  &domain.JrpcParams{Endpoint: "not a url"},
			},
			expectedErr: domain.ErrMissingEndpoints,
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.item.Validate()
			if tt.expectedErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestIsFromZerostate(t *testing.T) {
	t.Parallel()

	addr := "-1:7777777777777777777777777777777777777777777777777777777777777777"
	require.True(t, domain.IsFromZerostate("mainnet", addr))
	require.True(t, domain.IsFromZerostate("testnet", addr))
	require.False(t, domain.IsFromZerostate("localnet", addr))
	require.False(t, domain.IsFromZerostate("mainnet", domain.ZeroAddress))
}
