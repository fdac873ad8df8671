package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/puffious/rclone-pool/internal/poolconfig"
	"github.com/puffious/rclone-pool/internal/poolerrors"
)

var (
	initRemotes      string
	initCryptRemotes string
	initUseCrypt     bool
	initChunkSize    int64
	initForce        bool
)

var initCommand = &cobra.Command{
	Use:   "init",
	Short: "Write a new pool config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil && !initForce {
			fail(poolerrors.Newf(poolerrors.KindAlreadyExists, "%s already exists; pass --force to overwrite", configPath))
		}

		cfg := poolconfig.Defaults()
		if initRemotes != "" {
			cfg.Remotes = splitCSV(initRemotes)
		}
		if initCryptRemotes != "" {
			cfg.CryptRemotes = splitCSV(initCryptRemotes)
		}
		cfg.UseCrypt = initUseCrypt
		if initChunkSize > 0 {
			cfg.ChunkSize = initChunkSize
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := os.MkdirAll(dirOf(configPath), 0o700); err != nil {
			return err
		}
		if err := cfg.Save(configPath); err != nil {
			return err
		}
		cmd.Println("wrote", configPath)
		return nil
	},
}

func init() {
	flags := initCommand.Flags()
	flags.StringVar(&initRemotes, "remotes", "", "comma-separated remote names (each ending ':')")
	flags.StringVar(&initCryptRemotes, "crypt-remotes", "", "comma-separated crypt remote names")
	flags.BoolVar(&initUseCrypt, "use-crypt", true, "prefer crypt-remotes over remotes when both are set")
	flags.Int64Var(&initChunkSize, "chunk-size", 0, "chunk size in bytes (0 keeps the default)")
	flags.BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCommand.AddCommand(initCommand)
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func dirOf(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "."
	}
	return path[:idx]
}
