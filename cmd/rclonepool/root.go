// Command rclonepool drives a chunked, redundant storage pool spread over
// the remotes an external rclone binary already knows about.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/puffious/rclone-pool/internal/pool"
	"github.com/puffious/rclone-pool/internal/poolconfig"
	"github.com/puffious/rclone-pool/internal/poolerrors"
	"github.com/puffious/rclone-pool/internal/rclog"
	"github.com/puffious/rclone-pool/internal/transport"
)

// Exit codes, per the CLI's external contract.
const (
	exitSuccess  = 0
	exitGeneric  = 1
	exitMisuse   = 2
	exitNotFound = 3
	exitPartial  = 4
)

var configPath string
var verbose bool
var quiet bool

var rootCommand = &cobra.Command{
	Use:   "rclonepool",
	Short: "A unified, chunked, redundant storage pool over rclone remotes",
}

func init() {
	flags := rootCommand.PersistentFlags()
	flags.StringVar(&configPath, "config", defaultConfigPath(), "path to the pool's JSON config file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVarP(&quiet, "quiet", "q", false, "only log errors")
}

func defaultConfigPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.config/rclonepool/rclonepool.json"
	}
	return "rclonepool.json"
}

func main() {
	cobra.OnInitialize(func() {
		switch {
		case verbose:
			rclog.SetLevel(rclog.LevelDebug)
		case quiet:
			rclog.SetLevel(rclog.LevelError)
		}
	})
	if err := rootCommand.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// loadPool reads configPath and wires a Pool over a real rclone-backed
// Transport, the way every subcommand but `init` needs one.
func loadPool(ctx context.Context) (*pool.Pool, *poolconfig.Config, error) {
	cfg, err := poolconfig.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	t := transport.New(cfg.RcloneBinary, cfg.RcloneFlags, 30*time.Second,
		time.Duration(cfg.RetryDelay*float64(time.Second)), cfg.MaxRetries)
	p, err := pool.New(ctx, cfg, t)
	if err != nil {
		return nil, nil, err
	}
	return p, cfg, nil
}

// exitCode maps a returned error to the process exit status: 0 success, 1
// generic failure, 2 misuse, 3 not-found, 4 partial-failure.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	switch poolerrors.Kind(err) {
	case poolerrors.KindManifestNotFound:
		return exitNotFound
	case poolerrors.KindConfigInvalid, poolerrors.KindInvalidRange,
		poolerrors.KindInvalidChunkSize, poolerrors.KindAlreadyExists,
		poolerrors.KindUnsatisfiableRange:
		return exitMisuse
	case poolerrors.KindChunkMissing, poolerrors.KindManifestCorrupt:
		return exitPartial
	default:
		return exitGeneric
	}
}

// fail prints err to stderr and exits with its mapped code, used by
// subcommands whose cobra RunE can't itself carry an exit code.
func fail(err error) {
	fmt.Fprintln(os.Stderr, "rclonepool:", err)
	os.Exit(exitCode(err))
}
