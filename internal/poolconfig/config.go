// Package poolconfig loads and validates the flat JSON configuration:
// remotes, chunking parameters, transport binary/flags, WebDAV bind
// address, and balancing strategy selection.
package poolconfig

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/puffious/rclone-pool/internal/poolerrors"
)

// Strategy names recognized by balancing_strategy.
const (
	StrategyLeastUsed           = "least_used"
	StrategyRoundRobinLeastUsed = "round_robin_least_used"
)

// Config is the typed view of the recognized keys. Unknown keys are kept in
// Extra so a round-trip save/load preserves forward-compat fields.
type Config struct {
	Remotes             []string `json:"remotes"`
	CryptRemotes        []string `json:"crypt_remotes"`
	UseCrypt            bool     `json:"use_crypt"`
	ChunkSize           int64    `json:"chunk_size"`
	DataPrefix          string   `json:"data_prefix"`
	ManifestPrefix      string   `json:"manifest_prefix"`
	TempDir             string   `json:"temp_dir"`
	RcloneBinary        string   `json:"rclone_binary"`
	RcloneFlags         []string `json:"rclone_flags"`
	WebdavHost          string   `json:"webdav_host"`
	WebdavPort          int      `json:"webdav_port"`
	MaxParallelWorkers  int      `json:"max_parallel_workers"`
	MaxRetries          int      `json:"max_retries"`
	RetryDelay          float64  `json:"retry_delay"`
	BalancingStrategy   string   `json:"balancing_strategy"`

	// Extra carries any key this struct doesn't recognize: unrecognized
	// keys are ignored for validation purposes but preserved on disk, so
	// Save() echoes them back unchanged.
	Extra map[string]json.RawMessage `json:"-"`
}

// Defaults returns the configuration's built-in default values, for
// callers (such as the `init` CLI command) that want to start from them
// before any file exists.
func Defaults() Config {
	return defaults()
}

// defaults returns the configuration's built-in default values.
func defaults() Config {
	return Config{
		Remotes:            []string{},
		CryptRemotes:       []string{},
		UseCrypt:           true,
		ChunkSize:          104857600,
		DataPrefix:         "rclonepool_data",
		ManifestPrefix:     "rclonepool_manifests",
		TempDir:            "/dev/shm/rclonepool",
		RcloneBinary:       "rclone",
		RcloneFlags:        []string{"--fast-list", "--no-traverse"},
		WebdavHost:         "0.0.0.0",
		WebdavPort:         8080,
		MaxParallelWorkers: 4,
		MaxRetries:         3,
		RetryDelay:         1.0,
		BalancingStrategy:  StrategyLeastUsed,
	}
}

// Load reads path, applying defaults for any field not present, and
// validates the result. A missing file is validated as pure defaults; since
// the default remote list is empty, that fails with ConfigInvalid (the
// `init` CLI command is what writes the file the first time).
func Load(path string) (*Config, error) {
	cfg := defaults()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		if verr := cfg.Validate(); verr != nil {
			return nil, verr
		}
		return &cfg, nil
	}
	if err != nil {
		return nil, poolerrors.Wrapf(poolerrors.KindConfigInvalid, err, "open config %s", path)
	}
	defer f.Close()

	if err := decodeInto(&cfg, f); err != nil {
		return nil, poolerrors.Wrapf(poolerrors.KindConfigInvalid, err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeInto(cfg *Config, r io.Reader) error {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	merged, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(merged, cfg); err != nil {
		return err
	}
	cfg.Extra = map[string]json.RawMessage{}
	known := knownKeys(*cfg)
	for k, v := range raw {
		if !known[k] {
			cfg.Extra[k] = v
		}
	}
	return nil
}

func knownKeys(cfg Config) map[string]bool {
	_ = cfg
	return map[string]bool{
		"remotes": true, "crypt_remotes": true, "use_crypt": true,
		"chunk_size": true, "data_prefix": true, "manifest_prefix": true,
		"temp_dir": true, "rclone_binary": true, "rclone_flags": true,
		"webdav_host": true, "webdav_port": true, "max_parallel_workers": true,
		"max_retries": true, "retry_delay": true, "balancing_strategy": true,
	}
}

// Save writes cfg to path as indented JSON, echoing Extra keys alongside the
// recognized ones.
func (c *Config) Save(path string) error {
	out := map[string]json.RawMessage{}
	for k, v := range c.Extra {
		out[k] = v
	}
	buf, err := json.Marshal(c)
	if err != nil {
		return poolerrors.Wrap(poolerrors.KindConfigInvalid, err, "marshal config")
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(buf, &known); err != nil {
		return poolerrors.Wrap(poolerrors.KindConfigInvalid, err, "remarshal config")
	}
	for k, v := range known {
		out[k] = v
	}
	final, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return poolerrors.Wrap(poolerrors.KindConfigInvalid, err, "marshal config")
	}
	return os.WriteFile(path, final, 0o600)
}

// ActiveRemotes returns the remote list that's actually in effect: crypt
// remotes when use_crypt is set and non-empty, the base remotes otherwise.
func (c *Config) ActiveRemotes() []string {
	if c.UseCrypt && len(c.CryptRemotes) > 0 {
		return c.CryptRemotes
	}
	return c.Remotes
}

// Validate checks the fields a running pool can't tolerate being wrong.
func (c *Config) Validate() error {
	if len(c.ActiveRemotes()) == 0 {
		return poolerrors.New(poolerrors.KindConfigInvalid, "no remotes configured")
	}
	for _, r := range c.ActiveRemotes() {
		if !strings.HasSuffix(r, ":") {
			return poolerrors.Newf(poolerrors.KindConfigInvalid, "remote %q must end with ':'", r)
		}
	}
	if c.ChunkSize <= 0 {
		return poolerrors.New(poolerrors.KindConfigInvalid, "chunk_size must be positive")
	}
	if c.MaxParallelWorkers <= 0 {
		return poolerrors.New(poolerrors.KindConfigInvalid, "max_parallel_workers must be positive")
	}
	if c.MaxRetries < 0 {
		return poolerrors.New(poolerrors.KindConfigInvalid, "max_retries must be non-negative")
	}
	switch c.BalancingStrategy {
	case StrategyLeastUsed, StrategyRoundRobinLeastUsed:
	default:
		return poolerrors.Newf(poolerrors.KindConfigInvalid, "unknown balancing_strategy %q", c.BalancingStrategy)
	}
	return nil
}
