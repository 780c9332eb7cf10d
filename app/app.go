package app

import (
	"context"
	"fmt"
	"os"

	"github.com/dposnet/dposd/infrastructure/config"
	"github.com/dposnet/dposd/infrastructure/db/database/ldb"
	"github.com/dposnet/dposd/infrastructure/logger"
	"github.com/dposnet/dposd/infrastructure/os/signal"
	"github.com/dposnet/dposd/util/panics"
	"github.com/dposnet/dposd/util/profiling"
	"github.com/dposnet/dposd/version"
	"github.com/pkg/errors"
)

type dposdApp struct {
	cfg *config.Config
}

// StartApp starts the dposd app, and blocks until it finishes running
func StartApp(args []string) error {
	defer panics.HandlePanic(log, "MAIN", nil)

	cfg, err := config.LoadConfig(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	if cfg.ShowVersion {
		fmt.Println("dposd version", version.Version())
		return nil
	}

	cfg.InitLog()
	defer logger.BackendLog.Close()

	app := &dposdApp{cfg: cfg}
	err = app.main()
	if err != nil {
		log.Criticalf("%+v", err)
	}
	return err
}

func (app *dposdApp) main() error {
	interrupt := signal.InterruptListener()

	log.Infof("Version %s", version.Version())
	log.Infof("Network %s", app.cfg.NetParams().Name)

	// Enable http profiling server if requested.
	if app.cfg.Profile != "" {
		profiling.Start(app.cfg.Profile, log)
	}

	databaseContext, err := openDB(app.cfg)
	if err != nil {
		return err
	}
	defer func() {
		log.Infof("Gracefully shutting down the database...")
		err := databaseContext.Close()
		if err != nil {
			log.Errorf("Failed to close the database: %s", err)
		}
	}()

	// Return now if an interrupt signal was triggered.
	if interruptRequested(interrupt) {
		return nil
	}

	componentManager, err := NewComponentManager(app.cfg, databaseContext)
	if err != nil {
		return errors.Wrapf(err, "unable to start dposd")
	}

	if app.cfg.Rebuild {
		err := componentManager.Rebuild(interrupt)
		if err != nil {
			return err
		}
		if interruptRequested(interrupt) {
			return nil
		}
	}

	componentManager.Start()
	defer componentManager.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	spawn("dposdApp.main-waitForInterrupt", func() {
		<-interrupt
		cancel()
	})

	return componentManager.Run(ctx)
}

// openDB opens the database at the data directory of cfg and makes sure
// its version is the one this binary writes
func openDB(cfg *config.Config) (*ldb.LevelDB, error) {
	log.Infof("Loading database from '%s'", cfg.DataDir)

	err := os.MkdirAll(cfg.DataDir, 0700)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	doesVersionFileExist, err := checkDatabaseVersion(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	db, err := ldb.NewLevelDB(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	if !doesVersionFileExist {
		err := createDatabaseVersionFile(cfg.DataDir)
		if err != nil {
			return nil, err
		}
	}
	return db, nil
}

// interruptRequested returns true when the channel returned by
// InterruptListener was closed
func interruptRequested(interrupted <-chan struct{}) bool {
	select {
	case <-interrupted:
		return true
	default:
	}
	return false
}
