package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dposnet/dposd/domain/chainconfig"
)

func TestLoadConfig(t *testing.T) {
	appDir, err := ioutil.TempDir("", "TestLoadConfig")
	if err != nil {
		t.Fatalf("Failed creating a temporary directory: %v", err)
	}
	defer os.RemoveAll(appDir)

	cfg, err := LoadConfig([]string{"--appdir", appDir, "--devnet", "--forgingsecret", "first",
		"--forgingsecret", "second", "--poolfillinterval", "5s", "--rebuild"})
	if err != nil {
		t.Fatalf("LoadConfig: %+v", err)
	}
	if cfg.NetParams().Name != chainconfig.DevnetParams.Name {
		t.Fatalf("expected the devnet to be selected, got %s", cfg.NetParams().Name)
	}
	if len(cfg.ForgingSecrets) != 2 {
		t.Fatalf("expected 2 forging secrets, got %d", len(cfg.ForgingSecrets))
	}
	if !cfg.Rebuild || cfg.RebuildBatchSize != defaultRebuildBatchSize {
		t.Fatalf("unexpected rebuild options %t %d", cfg.Rebuild, cfg.RebuildBatchSize)
	}
	if cfg.PoolConfig().FillInterval != 5*time.Second {
		t.Fatalf("expected a fill interval of 5s, got %s", cfg.PoolConfig().FillInterval)
	}
	expectedDataDir := filepath.Join(appDir, "devnet", defaultDataDirname)
	if cfg.DataDir != expectedDataDir {
		t.Fatalf("expected data dir %s, got %s", expectedDataDir, cfg.DataDir)
	}
}

func TestLoadConfigDefaultNetwork(t *testing.T) {
	cfg, err := LoadConfig([]string{"--appdir", t.TempDir()})
	if err != nil {
		t.Fatalf("LoadConfig: %+v", err)
	}
	if cfg.NetParams().Name != chainconfig.MainnetParams.Name {
		t.Fatalf("expected the mainnet to be selected, got %s", cfg.NetParams().Name)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "multiple networks", args: []string{"--testnet", "--devnet"}},
		{name: "invalid debug level", args: []string{"--debuglevel", "loud"}},
		{name: "zero rebuild batch size", args: []string{"--rebuildbatchsize", "0"}},
		{name: "override outside devnet", args: []string{"--testnet", "--override-chain-params-file", "params.json"}},
		{name: "missing config file", args: []string{"--configfile", "/nonexistent/dposd.conf"}},
		{name: "profile port out of range", args: []string{"--profile", "80"}},
	}

	for _, test := range tests {
		args := append([]string{"--appdir", t.TempDir()}, test.args...)
		_, err := LoadConfig(args)
		if err == nil {
			t.Errorf("%s: expected LoadConfig to fail", test.name)
		}
	}
}

func TestConfigFile(t *testing.T) {
	appDir := t.TempDir()
	configFile := filepath.Join(appDir, "dposd.conf")
	err := ioutil.WriteFile(configFile, []byte("devnet=1\nmaxpoolqueuesize=7\n"), 0644)
	if err != nil {
		t.Fatalf("WriteFile: %s", err)
	}

	cfg, err := LoadConfig([]string{"--appdir", appDir, "--configfile", configFile, "--maxpoolqueuesize", "9"})
	if err != nil {
		t.Fatalf("LoadConfig: %+v", err)
	}
	if cfg.NetParams().Name != chainconfig.DevnetParams.Name {
		t.Fatalf("expected the config file to select the devnet, got %s", cfg.NetParams().Name)
	}
	if cfg.PoolConfig().MaxQueueSize != 9 {
		t.Fatalf("expected the command line to take precedence, got %d", cfg.PoolConfig().MaxQueueSize)
	}
}

func TestOverrideChainParams(t *testing.T) {
	appDir := t.TempDir()
	paramsFile := filepath.Join(appDir, "params.json")
	err := ioutil.WriteFile(paramsFile, []byte(`{"blockTimeInSeconds": 2, "broadhashWindow": 3}`), 0644)
	if err != nil {
		t.Fatalf("WriteFile: %s", err)
	}

	cfg, err := LoadConfig([]string{"--appdir", appDir, "--devnet", "--override-chain-params-file", paramsFile})
	if err != nil {
		t.Fatalf("LoadConfig: %+v", err)
	}
	if cfg.NetParams().BlockTime != 2*time.Second || cfg.NetParams().BroadhashWindow != 3 {
		t.Fatalf("expected the overrides to apply, got block time %s and broadhash window %d",
			cfg.NetParams().BlockTime, cfg.NetParams().BroadhashWindow)
	}
	if chainconfig.DevnetParams.BlockTime == 2*time.Second {
		t.Fatalf("expected the registered devnet parameters to stay unchanged")
	}
}
