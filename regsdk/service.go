package regsdk

import (
	"context"
	"net/http"
	"time"

	"github.com/ledgerwatch/erigon-lib/kv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/0xAtelerix/registry-sdk/regsdk/rpc"
)

type Config struct {
	ChainID        string
	DataDir        string
	RPCPort        string
	PrometheusPort string

	// Epoch is the registration epoch the service starts from.
	Epoch uint64

	// EpochInterval is how often the epoch advances. Defaults to
	// DefaultEpochInterval.
	EpochInterval time.Duration

	Logger *zerolog.Logger
}

// Service ties the storage and the RPC surface together and drives the
// registration epoch.
type Service struct {
	storage *Storage
	config  *Config
	rpc     *rpc.Server
}

func NewService(storage *Storage, config *Config) *Service {
	if config.Logger == nil {
		config.Logger = &log.Logger
	}

	server := rpc.NewServer(storage.RegistryDB(), storage.Queue()).
		WithLogger(config.Logger)

	server.SetEpoch(config.Epoch)
	CurrentEpoch.Set(float64(config.Epoch))

	return &Service{
		storage: storage,
		config:  config,
		rpc:     server,
	}
}

// RPC returns the JSON-RPC server, e.g. to add custom methods before Run.
func (s *Service) RPC() *rpc.Server {
	return s.rpc
}

// Run serves the JSON-RPC and metrics endpoints and advances the epoch until
// the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	logger := s.config.Logger

	go func() {
		if err := s.rpc.StartHTTPServer(s.config.RPCPort); err != nil {
			logger.Error().Err(err).Msg("RPC server stopped")
		}
	}()

	if s.config.PrometheusPort != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())

			server := &http.Server{
				Addr:        ":" + s.config.PrometheusPort,
				Handler:     mux,
				ReadTimeout: 15 * time.Second,
			}

			if err := server.ListenAndServe(); err != nil {
				logger.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	interval := s.config.EpochInterval
	if interval <= 0 {
		interval = DefaultEpochInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Registry service context cancelled, stopping")

			return nil
		case <-ticker.C:
			epoch := s.rpc.CurrentEpoch() + 1
			if err := s.advanceEpoch(ctx, epoch); err != nil {
				return err
			}
		}
	}
}

func (s *Service) advanceEpoch(ctx context.Context, epoch uint64) error {
	if err := s.storage.RegistryDB().Update(ctx, func(tx kv.RwTx) error {
		return WriteEpoch(tx, epoch)
	}); err != nil {
		return err
	}

	s.rpc.SetEpoch(epoch)
	CurrentEpoch.Set(float64(epoch))

	if err := UpdateStateMetrics(ctx, s.storage.RegistryDB()); err != nil {
		s.config.Logger.Warn().Err(err).Msg("Failed to refresh state metrics")
	}

	s.config.Logger.Info().Uint64("epoch", epoch).Msg("Epoch advanced")

	return nil
}
