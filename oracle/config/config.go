package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pelletier/go-toml/v2"

	"github.com/VerisLabs/hurdleRateOracle/oracle/log"
)

const FileName = "config.toml"

var (
	globalConfig configData
	home         string
	mu           sync.Mutex
)

type configData struct {
	Chain   chainConfig   `toml:"chain"`
	Trigger triggerConfig `toml:"trigger"`
	Fetch   fetchConfig   `toml:"fetch"`
	API     apiConfig     `toml:"api"`
	Log     logConfig     `toml:"log"`
}

type chainConfig struct {
	ID        string `toml:"id"`
	Owner     string `toml:"owner"`
	Router    string `toml:"router"`
	DBBackend string `toml:"db_backend"`
	Genesis   string `toml:"genesis"`
}

type triggerConfig struct {
	Enabled         bool   `toml:"enabled"`
	IntervalSeconds uint64 `toml:"interval_seconds"`
	SecretsSlot     uint8  `toml:"secrets_slot"`
	SecretsVersion  uint64 `toml:"secrets_version"`
}

type fetchConfig struct {
	Workers        int `toml:"workers"`
	TimeoutSeconds int `toml:"timeout_seconds"`
	MaxAttempts    int `toml:"max_attempts"`
	BaseDelayMs    int `toml:"base_delay_ms"`
}

type apiConfig struct {
	Enabled        bool     `toml:"enabled"`
	Listen         string   `toml:"listen"`
	AllowedOrigins []string `toml:"allowed_origins"`
	AdminToken     string   `toml:"admin_token"`
}

type logConfig struct {
	Level string `toml:"level"`
	File  bool   `toml:"file"`
}

// Load reads <dir>/config.toml, writing the defaults first if the file is missing.
func Load(dir string) error {
	mu.Lock()
	defer mu.Unlock()

	home = dir
	path := filepath.Join(dir, FileName)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefaultConfig(path); err != nil {
			return fmt.Errorf("failed to create default config: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg configData
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	globalConfig = cfg
	log.Infof("Loaded config from %s", path)
	return nil
}

// WriteDefault writes the default config to <dir>/config.toml.
func WriteDefault(dir string, overwrite bool) (string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil && !overwrite {
		return path, fmt.Errorf("config already exists: %s", path)
	}
	return path, createDefaultConfig(path)
}

// DefaultHome returns ~/.rateoracled.
func DefaultHome() string {
	osHome, err := os.UserHomeDir()
	if err != nil {
		return ".rateoracled"
	}
	return filepath.Join(osHome, ".rateoracled")
}

// DeriveAddress returns a deterministic account for a local role name.
func DeriveAddress(role string) sdk.AccAddress {
	return sdk.AccAddress(crypto.Keccak256([]byte("rateoracle/" + role))[12:])
}

func defaultConfig() configData {
	return configData{
		Chain: chainConfig{
			ID:        "hurdle-local-1",
			Owner:     DeriveAddress("owner").String(),
			Router:    DeriveAddress("router").String(),
			DBBackend: "goleveldb",
		},
		Trigger: triggerConfig{
			Enabled:         true,
			IntervalSeconds: 3600,
		},
		Fetch: fetchConfig{
			Workers:        4,
			TimeoutSeconds: 30,
			MaxAttempts:    5,
			BaseDelayMs:    1000,
		},
		API: apiConfig{
			Enabled:        true,
			Listen:         "127.0.0.1:8645",
			AllowedOrigins: []string{"*"},
		},
		Log: logConfig{
			Level: "info",
			File:  true,
		},
	}
}

func createDefaultConfig(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := toml.Marshal(defaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal TOML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func validateConfig(cfg configData) error {
	if cfg.Chain.ID == "" {
		return fmt.Errorf("chain ID is required")
	}

	if _, err := sdk.AccAddressFromBech32(cfg.Chain.Owner); err != nil {
		return fmt.Errorf("invalid owner address: %w", err)
	}

	if _, err := sdk.AccAddressFromBech32(cfg.Chain.Router); err != nil {
		return fmt.Errorf("invalid router address: %w", err)
	}

	switch cfg.Chain.DBBackend {
	case "goleveldb", "memdb":
	default:
		return fmt.Errorf("unsupported db backend: %s", cfg.Chain.DBBackend)
	}

	if cfg.Trigger.Enabled && cfg.Trigger.IntervalSeconds == 0 {
		return fmt.Errorf("trigger interval is required")
	}

	if cfg.Fetch.Workers <= 0 {
		return fmt.Errorf("fetch workers must be positive")
	}

	if cfg.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}

	if cfg.Fetch.MaxAttempts <= 0 {
		return fmt.Errorf("fetch max attempts must be positive")
	}

	if cfg.API.Enabled && cfg.API.Listen == "" {
		return fmt.Errorf("api listen address is required")
	}

	return nil
}

func Print() {
	log.Infof("%-15s: %s", "Home", Home())
	log.Infof("%-15s: %s", "Chain ID", ChainID())
	log.Infof("%-15s: %s", "Owner", Owner().String())
	log.Infof("%-15s: %s", "Router", Router().String())
	log.Infof("%-15s: %s", "DB Backend", DBBackend())
	log.Infof("%-15s: %v", "Trigger", TriggerEnabled())
	log.Infof("%-15s: %s", "Interval", TriggerInterval())
	log.Infof("%-15s: %d", "Workers", Workers())
	log.Infof("%-15s: %s", "API Listen", APIListen())
}

func Home() string {
	return home
}

func DataDir() string {
	return filepath.Join(home, "data")
}

func ChainID() string {
	return globalConfig.Chain.ID
}

func Owner() sdk.AccAddress {
	addr, err := sdk.AccAddressFromBech32(globalConfig.Chain.Owner)
	if err != nil {
		log.Fatalf("Invalid owner address: %v", err)
	}
	return addr
}

func Router() sdk.AccAddress {
	addr, err := sdk.AccAddressFromBech32(globalConfig.Chain.Router)
	if err != nil {
		log.Fatalf("Invalid router address: %v", err)
	}
	return addr
}

func DBBackend() string {
	return globalConfig.Chain.DBBackend
}

// GenesisFile returns the configured genesis path, empty for the built-in default.
func GenesisFile() string {
	if globalConfig.Chain.Genesis == "" || filepath.IsAbs(globalConfig.Chain.Genesis) {
		return globalConfig.Chain.Genesis
	}
	return filepath.Join(home, globalConfig.Chain.Genesis)
}

func TriggerEnabled() bool {
	return globalConfig.Trigger.Enabled
}

func TriggerInterval() time.Duration {
	return time.Duration(globalConfig.Trigger.IntervalSeconds) * time.Second
}

// Secrets returns the configured secrets slot and version; ok is false when no
// version is set.
func Secrets() (slot uint8, version uint64, ok bool) {
	return globalConfig.Trigger.SecretsSlot, globalConfig.Trigger.SecretsVersion, globalConfig.Trigger.SecretsVersion != 0
}

func Workers() int {
	return globalConfig.Fetch.Workers
}

func FetchTimeout() time.Duration {
	return time.Duration(globalConfig.Fetch.TimeoutSeconds) * time.Second
}

func FetchMaxAttempts() int {
	return globalConfig.Fetch.MaxAttempts
}

func FetchBaseDelay() time.Duration {
	return time.Duration(globalConfig.Fetch.BaseDelayMs) * time.Millisecond
}

func APIEnabled() bool {
	return globalConfig.API.Enabled
}

func APIListen() string {
	return globalConfig.API.Listen
}

func AllowedOrigins() []string {
	return globalConfig.API.AllowedOrigins
}

// AdminToken is the bearer token required on the tx endpoint, empty when the
// endpoint is open to anyone who can reach the listen address.
func AdminToken() string {
	return globalConfig.API.AdminToken
}

// APIURL returns the base URL of the local API.
func APIURL() string {
	return "http://" + globalConfig.API.Listen
}

func LogLevel() string {
	return globalConfig.Log.Level
}

func LogToFile() bool {
	return globalConfig.Log.File
}

// SetLogLevel overrides the configured level, used for the --log-level flag.
func SetLogLevel(level string) {
	mu.Lock()
	defer mu.Unlock()

	globalConfig.Log.Level = level
}

func ChannelSize() int {
	return 1 << 10
}

// SetForTesting installs an in-memory configuration rooted at dir.
func SetForTesting(dir string, workers int, maxAttempts int) {
	mu.Lock()
	defer mu.Unlock()

	home = dir
	globalConfig = defaultConfig()
	globalConfig.Chain.DBBackend = "memdb"
	globalConfig.Trigger.Enabled = false
	globalConfig.Fetch.Workers = workers
	globalConfig.Fetch.TimeoutSeconds = 5
	globalConfig.Fetch.MaxAttempts = maxAttempts
	globalConfig.Fetch.BaseDelayMs = 10
	globalConfig.API.Listen = "127.0.0.1:0"
	globalConfig.Log.File = false
}
