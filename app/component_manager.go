package app

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/dposnet/dposd/domain"
	"github.com/dposnet/dposd/domain/consensus"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/infrastructure/config"
	infrastructuredatabase "github.com/dposnet/dposd/infrastructure/db/database"
	"github.com/dposnet/dposd/infrastructure/logger"
	"github.com/dposnet/dposd/infrastructure/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// ComponentManager is a wrapper for all the dposd services
type ComponentManager struct {
	cfg           *config.Config
	domain        domain.Domain
	forger        *forger
	metricsServer *http.Server

	started, shutdown int32
}

// NewComponentManager returns a new ComponentManager instance.
// Use Start() to begin all services within this ComponentManager
func NewComponentManager(cfg *config.Config, db infrastructuredatabase.Database) (*ComponentManager, error) {
	consensusConfig := &consensus.Config{
		Params:    *cfg.NetParams(),
		Broadcast: broadcastBlock,
	}
	domainInstance, err := domain.New(consensusConfig, cfg.PoolConfig(), db)
	if err != nil {
		return nil, err
	}

	forgingSecrets := cfg.ForgingSecrets
	if len(forgingSecrets) == 0 && cfg.Devnet {
		log.Infof("No forging secrets configured. Forging for all %d genesis delegates of %s",
			len(consensusConfig.GenesisDelegateSecrets), consensusConfig.Name)
		forgingSecrets = consensusConfig.GenesisDelegateSecrets
	}

	var metricsServer *http.Server
	if cfg.MetricsListen != "" {
		registry := prometheus.NewRegistry()
		err := metrics.Register(registry)
		if err != nil {
			return nil, err
		}
		metricsServer = metrics.NewServer(cfg.MetricsListen, registry)
	}

	return &ComponentManager{
		cfg:    cfg,
		domain: domainInstance,
		forger: newForger(domainInstance.Consensus(), domainInstance.TxPool(),
			forgingSecrets, cfg.ForgingInterval),
		metricsServer: metricsServer,
	}, nil
}

// Domain returns the domain the ComponentManager runs
func (a *ComponentManager) Domain() domain.Domain {
	return a.domain
}

// Start launches all the dposd services.
func (a *ComponentManager) Start() {
	// Already started?
	if atomic.AddInt32(&a.started, 1) != 1 {
		return
	}

	log.Tracef("Starting dposd")

	a.domain.Start()
}

// Run blocks until ctx is done or one of the long running services
// fails
func (a *ComponentManager) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.forger.run(groupCtx)
	})

	if a.metricsServer != nil {
		group.Go(func() error {
			log.Infof("Metrics server listening on %s", a.metricsServer.Addr)
			err := a.metricsServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrapf(err, "metrics server failed")
			}
			return nil
		})
		group.Go(func() error {
			<-groupCtx.Done()
			return a.metricsServer.Close()
		})
	}

	return group.Wait()
}

// Stop gracefully shuts down all the dposd services.
func (a *ComponentManager) Stop() {
	// Make sure this only happens once.
	if atomic.AddInt32(&a.shutdown, 1) != 1 {
		log.Infof("Dposd is already in the process of shutting down")
		return
	}

	log.Warnf("Dposd shutting down")

	a.domain.Stop()
}

// Rebuild replays the persisted chain into a fresh ledger. It stops early
// once interrupt is closed, and the replay resumes on the next start.
func (a *ComponentManager) Rebuild(interrupt <-chan struct{}) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ComponentManager.Rebuild")
	defer onEnd()

	chain := a.domain.Consensus()
	targetHeight := rebuildTargetHeight(chain.LastBlock().Height, a.cfg.RebuildUpToHeight)
	log.Infof("Rebuilding the ledger up to height %d", targetHeight)

	bar := progressbar.NewOptions64(int64(targetHeight),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetDescription("Rebuilding"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	err := bar.RenderBlank()
	if err != nil {
		log.Debugf("Failed rendering the rebuild progress bar: %s", err)
	}

	lastBlock, err := chain.Rebuild(&model.RebuildOptions{
		BatchSize:  a.cfg.RebuildBatchSize,
		UpToHeight: a.cfg.RebuildUpToHeight,
		ShouldCancel: func() bool {
			select {
			case <-interrupt:
				return true
			default:
				return false
			}
		},
		OnProgress: func(*externalapi.Block) {
			_ = bar.Add(1)
		},
	})
	_ = bar.Finish()
	if errors.Is(err, model.ErrRebuildInterrupted) {
		log.Infof("Rebuild interrupted, it resumes on the next start: %s", err)
		return nil
	}
	if err != nil {
		return err
	}

	log.Infof("Ledger rebuilt up to block %s at height %d", lastBlock.ID, lastBlock.Height)
	return nil
}

// rebuildTargetHeight returns the height a rebuild stops at, which is also the
// number of replayed blocks since replay starts at the genesis block.
func rebuildTargetHeight(lastHeight uint64, upToHeight uint64) uint64 {
	if upToHeight != 0 && upToHeight < lastHeight {
		return upToHeight
	}
	return lastHeight
}

func broadcastBlock(block *externalapi.Block) {
	log.Debugf("Block %s at height %d is ready for relay", block.ID, block.Height)
}
