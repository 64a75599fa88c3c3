package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/vocdoni/zkvote-node/api"
	"github.com/vocdoni/zkvote-node/log"
)

// APIService represents a service that manages the HTTP API server.
type APIService struct {
	API    *api.API
	conf   api.APIConfig
	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewAPI creates a new APIService instance.
func NewAPI(conf *api.APIConfig, disableLogging bool) *APIService {
	if disableLogging {
		api.DisabledLogging = disableLogging
		log.Debugw("API logging is disabled")
	}
	return &APIService{conf: *conf}
}

// Start begins the API server. It returns an error if the service
// is already running or if it fails to start. The server is stopped when
// ctx is done.
func (as *APIService) Start(ctx context.Context) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.cancel != nil {
		return fmt.Errorf("service already running")
	}

	a, err := api.New(&as.conf)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}
	if err := a.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	as.API = a

	var svcCtx context.Context
	svcCtx, as.cancel = context.WithCancel(ctx)
	go func() {
		<-svcCtx.Done()
		if err := a.Stop(); err != nil {
			log.Warnw("error stopping API server", "error", err)
		}
	}()
	return nil
}

// Stop halts the API server.
func (as *APIService) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.cancel != nil {
		as.cancel()
		as.cancel = nil
	}
	if as.API != nil {
		if err := as.API.Stop(); err != nil {
			log.Warnw("error stopping API server", "error", err)
		}
	}
}

// HostPort returns the configured host and port of the API server.
func (as *APIService) HostPort() (string, int) {
	return as.conf.Host, as.conf.Port
}
