package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/puffious/rclone-pool/internal/rclog"
	"github.com/puffious/rclone-pool/internal/webdavfs"
)

var (
	serveHost string
	servePort int
)

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pool over WebDAV",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		p, cfg, err := loadPool(ctx)
		if err != nil {
			fail(err)
		}
		host := serveHost
		if !cmd.Flags().Changed("host") {
			host = cfg.WebdavHost
		}
		port := servePort
		if !cmd.Flags().Changed("port") {
			port = cfg.WebdavPort
		}
		addr := host + ":" + strconv.Itoa(port)
		rclog.Noticef("serving %s over webdav", addr)
		if err := http.ListenAndServe(addr, webdavfs.NewServer(p)); err != nil {
			fail(err)
		}
	},
}

func init() {
	flags := serveCommand.Flags()
	flags.StringVar(&serveHost, "host", "", "bind host (overrides config's webdav_host)")
	flags.IntVar(&servePort, "port", 0, "bind port (overrides config's webdav_port)")
	rootCommand.AddCommand(serveCommand)
}
