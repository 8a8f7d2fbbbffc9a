package dirorg

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables consumed at startup. A .env next to the binary
// or in the working directory is loaded first.
const (
	EnvAPIKey    = "DIRORG_API_KEY"
	EnvBaseURL   = "DIRORG_API_URL"
	EnvModel     = "DIRORG_MODEL"
	EnvTimeout   = "DIRORG_TIMEOUT" // seconds
	EnvThreshold = "DIRORG_LARGE_FOLDER_THRESHOLD"
	EnvBudget    = "DIRORG_REQUEST_BUDGET" // bytes of tree listing
	EnvDryRun    = "DIRORG_DRY_RUN"
)

const (
	DefaultModel     = "gpt-4o-mini"
	DefaultTimeout   = 60 * time.Second
	DefaultThreshold = 30
	DefaultBudget    = 64 * 1024
)

type Config struct {
	Root        string
	DryRun      bool
	AutoConfirm bool
	Style       string
	Verbose     bool

	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	LargeFolderThreshold int
	RequestBudget        int
	ProjectMarkers       []string
	LogFile              string

	// PlanSource selects where the proposal comes from: "api" (default),
	// "stdin" or "clipboard".
	PlanSource string
}

// LoadConfig builds the configuration from the environment. Flags layer
// on top of this in the CLI; the per-root .dirorg.yaml layers underneath
// via ApplyRootConfig.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DryRun:               envBool(EnvDryRun, true),
		APIKey:               os.Getenv(EnvAPIKey),
		BaseURL:              os.Getenv(EnvBaseURL),
		Model:                envString(EnvModel, DefaultModel),
		Timeout:              time.Duration(envInt(EnvTimeout, int(DefaultTimeout/time.Second))) * time.Second,
		LargeFolderThreshold: envInt(EnvThreshold, DefaultThreshold),
		RequestBudget:        envInt(EnvBudget, DefaultBudget),
		PlanSource:           "api",
	}
	return cfg
}

// rootConfig is the optional per-directory override file.
type rootConfig struct {
	Threshold int      `yaml:"threshold"`
	Markers   []string `yaml:"markers"`
	Budget    int      `yaml:"budget"`
	Style     string   `yaml:"style"`
}

// RootConfigName is looked up inside the directory being organized.
const RootConfigName = ".dirorg.yaml"

// ApplyRootConfig merges a .dirorg.yaml found in root, if any. Absent
// file is not an error; a malformed one is.
func (c *Config) ApplyRootConfig(root string) error {
	data, err := os.ReadFile(filepath.Join(root, RootConfigName))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", RootConfigName, err)
	}

	var rc rootConfig
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return fmt.Errorf("parsing %s: %w", RootConfigName, err)
	}

	if rc.Threshold > 0 {
		c.LargeFolderThreshold = rc.Threshold
	}
	if len(rc.Markers) > 0 {
		c.ProjectMarkers = rc.Markers
	}
	if rc.Budget > 0 {
		c.RequestBudget = rc.Budget
	}
	if rc.Style != "" && c.Style == "" {
		c.Style = rc.Style
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
