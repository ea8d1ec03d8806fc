package transport

import (
	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/httpclient"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/transport/gql"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/transport/jrpc"
	"github.com/evrwallet/evrwallet-daemon/pkg/stats"
	log "github.com/sirupsen/logrus"
)

type factory struct {
	opts    httpclient.Options
	decoder gql.TokenDecoder
	metrics *stats.Metrics
}

// NewFactory returns a ports.TransportFactory. Every transport gets its own
// http client, so breakers and rate limits never outlive a connection.
func NewFactory(
	decoder gql.TokenDecoder, opts httpclient.Options, metrics *stats.Metrics,
) ports.TransportFactory {
	return &factory{opts, decoder, metrics}
}

func (f *factory) NewGqlTransport(params domain.GqlParams) (ports.Transport, error) {
	log.Debugf("transport: new graphql transport for %v", params.Endpoints)
	return gql.NewTransport(httpclient.New(f.opts), params, f.decoder, f.metrics)
}

func (f *factory) NewJrpcTransport(params domain.JrpcParams) (ports.Transport, error) {
	log.Debugf("transport: new jrpc transport for %s", params.Endpoint)
	return jrpc.NewTransport(httpclient.New(f.opts), params)
}
