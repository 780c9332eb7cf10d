package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dposnet/dposd/domain/txpool"
	"github.com/dposnet/dposd/infrastructure/logger"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	defaultConfigFilename   = "dposd.conf"
	defaultDataDirname      = "data"
	defaultLogLevel         = "info"
	defaultLogDirname       = "logs"
	defaultLogFilename      = "dposd.log"
	defaultErrLogFilename   = "dposd_err.log"
	defaultRebuildBatchSize = 1000
	defaultForgingInterval  = time.Second
)

var (
	// DefaultAppDir is the default home directory for dposd.
	DefaultAppDir = appDataDir("dposd")

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
)

// Flags defines the configuration options for dposd.
//
// See loadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	AppDir      string `short:"b" long:"appdir" description:"Directory to store data"`
	LogDir      string `long:"logdir" description:"Directory to log output."`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`

	ForgingSecrets  []string      `long:"forgingsecret" description:"Secret of a delegate this node forges for -- may be specified multiple times"`
	ForgingInterval time.Duration `long:"forginginterval" description:"How often the forging loop checks whether one of the configured delegates owns the current slot"`

	Rebuild           bool   `long:"rebuild" description:"Replay the persisted chain to rebuild the ledger before starting"`
	RebuildBatchSize  uint64 `long:"rebuildbatchsize" description:"Number of blocks loaded per storage read during a rebuild"`
	RebuildUpToHeight uint64 `long:"rebuilduptoheight" description:"Stop the rebuild at this height and drop the blocks above it (0 replays the whole chain)"`

	MaxPoolQueueSize int           `long:"maxpoolqueuesize" description:"Capacity of each transaction pool queue"`
	PoolFillInterval time.Duration `long:"poolfillinterval" description:"Period of the transaction pool fill cycle"`

	MetricsListen string `long:"metricslisten" description:"Interface/port to expose prometheus metrics on (empty disables metrics)"`
	Profile       string `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`

	NetworkFlags
}

// Config defines the configuration options for dposd.
//
// See loadConfig for details on the configuration load process.
type Config struct {
	*Flags
	DataDir string
}

// PoolConfig returns the transaction pool limits selected by the flags
func (cfg *Config) PoolConfig() *txpool.Config {
	poolConfig := txpool.DefaultConfig()
	if cfg.MaxPoolQueueSize > 0 {
		poolConfig.MaxQueueSize = cfg.MaxPoolQueueSize
	}
	if cfg.PoolFillInterval > 0 {
		poolConfig.FillInterval = cfg.PoolFillInterval
	}
	return poolConfig
}

// appDataDir returns an operating system specific directory to be used
// for storing application data for an application
func appDataDir(appName string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "."
	}

	appNameUpper := strings.ToUpper(appName[:1]) + appName[1:]
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData != "" {
			return filepath.Join(appData, appNameUpper)
		}
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", appNameUpper)
	}
	return filepath.Join(homeDir, "."+strings.ToLower(appName))
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile:       defaultConfigFile,
		DebugLevel:       defaultLogLevel,
		AppDir:           DefaultAppDir,
		ForgingInterval:  defaultForgingInterval,
		RebuildBatchSize: defaultRebuildBatchSize,
		MaxPoolQueueSize: txpool.DefaultConfig().MaxQueueSize,
		PoolFillInterval: txpool.DefaultConfig().FillInterval,
	}
}

// DefaultConfig returns the default dposd configuration
func DefaultConfig() *Config {
	return &Config{Flags: defaultFlags()}
}

// LoadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
// 	1) Start with a default config with sane settings
// 	2) Pre-parse the command line to check for an alternative config file
// 	3) Load configuration file overwriting defaults with any specified options
// 	4) Parse CLI options and overwrite/add any specified options
//
// The above results in dposd functioning properly without any config settings
// while still allowing the user to override settings with config files and
// command line options. Command line options always take precedence.
func LoadConfig(args []string) (*Config, error) {
	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified. Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := defaultFlags()
	preParser := newConfigParser(preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); ok && flagsErr.Type == flags.ErrHelp {
			return nil, err
		}
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)

	// Load additional config from file.
	cfgFlags := defaultFlags()
	parser := newConfigParser(cfgFlags, flags.Default)
	cfg := &Config{Flags: cfgFlags}
	if preCfg.ConfigFile != defaultConfigFile || fileExists(preCfg.ConfigFile) {
		err := flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
		if err != nil {
			var pathErr *os.PathError
			if ok := errors.As(err, &pathErr); !ok {
				return nil, errors.Wrapf(err, "error parsing config file %s. %s", preCfg.ConfigFile, usageMessage)
			}
			return nil, errors.Wrapf(err, "config file %s not found", preCfg.ConfigFile)
		}
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, err
	}

	cfg.AppDir = cleanAndExpandPath(cfg.AppDir)
	cfg.DataDir = filepath.Join(cfg.AppDir, cfg.NetParams().Name, defaultDataDirname)
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.AppDir, cfg.NetParams().Name, defaultLogDirname)
	}
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}

	// Parse, validate, and set debug log level(s).
	err = logger.ParseAndSetDebugLevels(cfg.DebugLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", usageMessage)
	}

	if cfg.RebuildBatchSize == 0 {
		return nil, errors.Errorf("rebuildbatchsize must be positive. %s", usageMessage)
	}
	if cfg.ForgingInterval <= 0 {
		return nil, errors.Errorf("forginginterval must be positive. %s", usageMessage)
	}
	if cfg.PoolFillInterval <= 0 {
		return nil, errors.Errorf("poolfillinterval must be positive. %s", usageMessage)
	}

	// Validate profile port number
	if cfg.Profile != "" {
		profilePort, err := strconv.Atoi(cfg.Profile)
		if err != nil || profilePort < 1024 || profilePort > 65535 {
			return nil, errors.Errorf("the profile port must be between 1024 and 65535. %s", usageMessage)
		}
	}

	return cfg, nil
}

// InitLog attaches the log files of cfg to the logger backend
func (cfg *Config) InitLog() {
	logger.InitLog(filepath.Join(cfg.LogDir, defaultLogFilename),
		filepath.Join(cfg.LogDir, defaultErrLogFilename), true)
}

func newConfigParser(cfgFlags *Flags, options flags.Options) *flags.Parser {
	parser := flags.NewParser(cfgFlags, options)
	return parser
}

func fileExists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}
