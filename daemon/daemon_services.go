package daemon

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/services/chainstate"
	"github.com/bsv-blockchain/minerid/services/mempool"
	"github.com/bsv-blockchain/minerid/services/minerid"
	"github.com/bsv-blockchain/minerid/services/rpc"
	"github.com/bsv-blockchain/minerid/services/validator"
	"github.com/bsv-blockchain/minerid/settings"
	"github.com/bsv-blockchain/minerid/stores/funding"
	"github.com/bsv-blockchain/minerid/stores/minerinfo"
	minerinfoleveldb "github.com/bsv-blockchain/minerid/stores/minerinfo/leveldb"
	"github.com/bsv-blockchain/minerid/stores/utxo/memory"
	"github.com/bsv-blockchain/minerid/ulogger"
	"github.com/bsv-blockchain/minerid/util/servicemanager"
	"github.com/ordishs/gocore"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stores holds the state shared by the services of one daemon.
type Stores struct {
	UtxoStore  *memory.Memory
	Tracker    *minerinfo.Tracker
	TxPool     *mempool.TxPool
	ChainState *chainstate.State
	Validator  *validator.Validator
	Funding    *funding.Store
}

// Close releases the tracker history.
func (s *Stores) Close() error {
	if s.Tracker == nil {
		return nil
	}

	return s.Tracker.Close()
}

// startServices builds the stores and adds the RPC server to the service manager.
func (d *Daemon) startServices(ctx context.Context, logger ulogger.Logger, appSettings *settings.Settings,
	sm *servicemanager.ServiceManager, readyCh chan<- struct{}) error {
	var closeOnce sync.Once

	createLogger := d.loggerFactory

	startProfiler(logger, appSettings)

	prometheusEndpoint := appSettings.PrometheusEndpoint
	if prometheusEndpoint != "" && !metricsRegistered.Load() {
		metricsRegistered.Store(true)
		logger.Infof("Starting prometheus endpoint on %s", prometheusEndpoint)
		http.Handle(prometheusEndpoint, promhttp.Handler())
	}

	stores, err := createStores(appSettings, createLogger)
	if err != nil {
		return err
	}

	d.stores = stores

	broadcaster := d.broadcaster
	if broadcaster == nil {
		if broadcaster, err = newBroadcaster(appSettings, stores, createLogger); err != nil {
			return err
		}
	}

	d.minerID = minerid.New(createLogger("mnid"), appSettings, stores.ChainState, stores.TxPool, broadcaster, stores.Funding)

	if err = startRPCService(ctx, d, appSettings, sm, createLogger); err != nil {
		return err
	}

	if readyCh != nil {
		go func() {
			if err := sm.WaitForServiceToBeReady(readyTimeout); err != nil {
				logger.Errorf("services not ready: %v", err)
				return
			}

			closeOnce.Do(func() { close(readyCh) })
		}()
	}

	return nil
}

// createStores builds the confirmed UTXO set, the tracker, the mempool and the chain state.
// The tracker history lives in leveldb when minerid_trackerStore names a path.
func createStores(appSettings *settings.Settings, createLogger func(string) ulogger.Logger) (*Stores, error) {
	var history minerinfo.History

	if path := appSettings.MinerID.TrackerStore; path != "" {
		leveldbHistory, err := minerinfoleveldb.New(createLogger("mihs"), path)
		if err != nil {
			return nil, errors.NewStorageError("could not open miner info history at %s", path, err)
		}

		history = leveldbHistory
	}

	tracker := minerinfo.NewTracker(createLogger("mitr"), history)
	pool := mempool.New(createLogger("mpool"), tracker)
	utxoStore := memory.New(createLogger("utxo"))
	state := chainstate.New(createLogger("chain"), appSettings, utxoStore, pool)

	return &Stores{
		UtxoStore:  utxoStore,
		Tracker:    tracker,
		TxPool:     pool,
		ChainState: state,
		Validator:  validator.New(createLogger("valid"), appSettings, state, pool),
		Funding:    funding.New(createLogger("fund"), appSettings),
	}, nil
}

// newBroadcaster returns the in-process validator, or a client for the remote node when
// minerid_broadcastURL is set.
func newBroadcaster(appSettings *settings.Settings, stores *Stores, createLogger func(string) ulogger.Logger) (minerid.Broadcaster, error) {
	if appSettings.MinerID.BroadcastURL == nil {
		return stores.Validator, nil
	}

	return minerid.NewNodeBroadcaster(createLogger("bcst"), appSettings.MinerID.BroadcastURL)
}

// startRPCService initializes and adds the RPC service to the ServiceManager.
func startRPCService(_ context.Context, d *Daemon, appSettings *settings.Settings,
	sm *servicemanager.ServiceManager, createLogger func(string) ulogger.Logger) error {
	rpcLogger := createLogger("rpc")

	rpcServer, err := rpc.NewServer(rpcLogger, appSettings, d.minerID)
	if err != nil {
		return err
	}

	d.rpcServer = rpcServer

	if err = sm.AddService("RPC", rpcServer); err != nil {
		return err
	}

	d.watchShutdownRequests(rpcLogger, sm, rpcServer)

	return nil
}

// startProfiler initializes and starts the profiler if the address is set in the app settings.
func startProfiler(logger ulogger.Logger, appSettings *settings.Settings) {
	profilerAddr := appSettings.ProfilerAddr
	if profilerAddr != "" && !pprofRegistered.Load() {
		pprofRegistered.Store(true)

		go func() {
			logger.Infof("Profiler listening on http://%s/debug/pprof", profilerAddr)

			gocore.RegisterStatsHandlers()

			server := &http.Server{
				Addr:              profilerAddr,
				Handler:           nil,
				ReadHeaderTimeout: 20 * time.Second,
				ReadTimeout:       60 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("profiler stopped: %v", err)
			}
		}()
	}
}
