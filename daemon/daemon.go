// Package daemon wires the miner info service to its chain state, mempool, funding files and
// RPC server, and runs them under a service manager.
package daemon

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/services/minerid"
	"github.com/bsv-blockchain/minerid/services/rpc"
	"github.com/bsv-blockchain/minerid/settings"
	"github.com/bsv-blockchain/minerid/ulogger"
	"github.com/bsv-blockchain/minerid/util/servicemanager"
)

var (
	pprofRegistered   atomic.Bool
	metricsRegistered atomic.Bool
)

// readyTimeout bounds how long Start waits for the services to accept work.
const readyTimeout = 10 * time.Second

type Daemon struct {
	Ctx           context.Context
	doneCh        chan struct{}
	closeDoneOnce sync.Once

	stopCh         chan struct{} // closed when all services have stopped
	closeStopOnce  sync.Once
	serverMu       sync.Mutex
	server         *http.Server
	ServiceManager *servicemanager.ServiceManager
	loggerFactory  func(serviceName string) ulogger.Logger
	stores         *Stores
	broadcaster    minerid.Broadcaster
	minerID        *minerid.Service
	rpcServer      *rpc.RPCServer
	started        atomic.Bool
}

func New(opts ...Option) *Daemon {
	d := &Daemon{
		Ctx:    context.Background(),
		doneCh: make(chan struct{}),
		stopCh: make(chan struct{}),
		loggerFactory: func(serviceName string) ulogger.Logger {
			return ulogger.New(serviceName)
		},
	}

	for _, opt := range opts {
		opt(d)
	}

	d.ServiceManager = servicemanager.NewServiceManager(d.Ctx, d.loggerFactory("smgr"))

	return d
}

// Start builds the stores and services and blocks until they stopped, either through Stop, a
// stop command on the RPC interface or a failing service. readyCh, when given, is closed once
// the RPC server accepts requests.
func (d *Daemon) Start(logger ulogger.Logger, tSettings *settings.Settings, readyCh ...chan struct{}) {
	sm := d.ServiceManager

	var readyChInternal chan struct{}
	if len(readyCh) > 0 {
		readyChInternal = readyCh[0]
	}

	d.started.Store(true)

	if err := d.startServices(sm.Ctx, logger, tSettings, sm, readyChInternal); err != nil {
		logger.Errorf("error starting services: %v", err)
		sm.Shutdown()
	}

	d.startHealthServer(logger, tSettings, sm)

	waitErr := make(chan error, 1)

	go func() {
		waitErr <- sm.Wait()
	}()

	select {
	case err := <-waitErr:
		if err != nil {
			logger.Errorf("services failed: %v", err)
		}
	case <-d.doneCh:
		logger.Infof("daemon shutdown requested")

		sm.Shutdown()

		logger.Infof("daemon shutdown waiting for services to finish")

		if err := <-waitErr; err != nil {
			logger.Errorf("error during service shutdown: %v", err)
		}
	}

	d.shutdownHealthServer(logger)
	d.closeStores(logger)

	logger.Infof("daemon shutdown completed")

	d.closeStopOnce.Do(func() { close(d.stopCh) })
}

// Stop asks Start to shut everything down and waits for it, up to timeout (default 10s).
func (d *Daemon) Stop(timeout ...time.Duration) error {
	logger := d.loggerFactory("dmn")

	d.closeDoneOnce.Do(func() { close(d.doneCh) })

	if !d.started.Load() {
		d.closeStopOnce.Do(func() { close(d.stopCh) })
		return nil
	}

	shutdownTimeout := 10 * time.Second
	if len(timeout) > 0 {
		shutdownTimeout = timeout[0]
	}

	select {
	case <-d.stopCh:
		return nil
	case <-time.After(shutdownTimeout):
		logger.Warnf("Timeout waiting for services to stop after %v", shutdownTimeout)

		return errors.NewProcessingError("timeout waiting for services to stop after %v", shutdownTimeout)
	}
}

// MinerID returns the miner info service once Start has built it.
func (d *Daemon) MinerID() *minerid.Service {
	return d.minerID
}

// RPCServer returns the RPC server once Start has built it.
func (d *Daemon) RPCServer() *rpc.RPCServer {
	return d.rpcServer
}

// Stores returns the stores once Start has built them.
func (d *Daemon) Stores() *Stores {
	return d.stores
}

// watchShutdownRequests cancels the service manager when the stop command is called.
func (d *Daemon) watchShutdownRequests(logger ulogger.Logger, sm *servicemanager.ServiceManager, rpcServer *rpc.RPCServer) {
	go func() {
		select {
		case <-rpcServer.RequestedProcessShutdown():
			logger.Infof("shutdown requested through the rpc interface")
			sm.Shutdown()
		case <-sm.Ctx.Done():
		}
	}()
}

func (d *Daemon) startHealthServer(logger ulogger.Logger, tSettings *settings.Settings, sm *servicemanager.ServiceManager) {
	if tSettings.HealthCheckAddr == "" {
		return
	}

	mux := http.NewServeMux()
	healthFunc := func(liveness bool) func(http.ResponseWriter, *http.Request) {
		return func(w http.ResponseWriter, r *http.Request) {
			status, details, err := sm.HealthHandler(r.Context(), liveness)
			if err != nil {
				logger.Warnf("health check failed: %v", err)
			}

			w.WriteHeader(status)
			_, _ = w.Write([]byte(details))
		}
	}
	mux.HandleFunc("/health", healthFunc(false))
	mux.HandleFunc("/health/readiness", healthFunc(false))
	mux.HandleFunc("/health/liveness", healthFunc(true))

	server := &http.Server{
		Addr:              tSettings.HealthCheckAddr,
		Handler:           mux,
		ReadHeaderTimeout: 20 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	d.serverMu.Lock()
	d.server = server
	d.serverMu.Unlock()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Error starting health check server: %v", err)
		}
	}()

	logger.Infof("Health check endpoint listening on http://%s/health", tSettings.HealthCheckAddr)
}

func (d *Daemon) shutdownHealthServer(logger ulogger.Logger) {
	d.serverMu.Lock()
	defer d.serverMu.Unlock()

	if d.server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.server.Shutdown(ctx); err != nil {
		logger.Warnf("Error shutting down health check server: %v", err)
	}

	d.server = nil
}

func (d *Daemon) closeStores(logger ulogger.Logger) {
	if d.stores == nil {
		return
	}

	logger.Debugf("closing miner info tracker")

	if err := d.stores.Close(); err != nil {
		logger.Warnf("error closing stores: %v", err)
	}
}
