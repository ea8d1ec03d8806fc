package httpinterface

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/evrwallet/evrwallet-daemon/internal/core/application"
	"github.com/evrwallet/evrwallet-daemon/internal/interfaces"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

type ServiceOpts struct {
	Address  string
	Gatherer prometheus.Gatherer

	WalletSvc application.WalletService
}

func (o ServiceOpts) validate() error {
	if o.Address == "" {
		return fmt.Errorf("missing listening address")
	}
	if o.WalletSvc == nil {
		return fmt.Errorf("missing wallet service")
	}
	return nil
}

type service struct {
	opts    ServiceOpts
	server  *http.Server
	streams *streamHub
}

func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}
	return &service{opts: opts}, nil
}

func (s *service) Start() error {
	router, streams := newHandler(s.opts.WalletSvc, s.opts.Gatherer)

	lis, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}

	s.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.streams = streams

	go func() {
		if err := s.server.Serve(lis); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http: server stopped")
		}
	}()

	log.Infof("http api listening on %s", lis.Addr())
	return nil
}

func (s *service) Stop() {
	if s.server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.streams.closeAll()
	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("http: failed to gracefully stop server")
	}
	log.Debug("disabled http interface")
}
