package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/shellgate/shellgate/internal/admin"
	"github.com/shellgate/shellgate/internal/config"
	"github.com/shellgate/shellgate/internal/gateway"
	"github.com/shellgate/shellgate/internal/logging"
	"github.com/shellgate/shellgate/internal/route"
	"github.com/shellgate/shellgate/internal/router"
	"github.com/shellgate/shellgate/internal/watch"
)

func newServeCommand() *cobra.Command {
	var listen string
	var port uint16
	var filePath string
	var logFile string
	var watchConfig bool

	cmd := &cobra.Command{
		Use:   "serve [route ...]",
		Short: "Start the gateway server",
		Long: `Starts the HTTP gateway. Routes are taken from a config file (-f), from
positional arguments on the command line, or both; CLI routes are
appended after any file-declared routes. At least one route must be
configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(serveOptions{
				listen:      listen,
				port:        port,
				filePath:    filePath,
				cliRoutes:   args,
				logFile:     logFile,
				watchConfig: watchConfig,
			})
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to listen on (default 127.0.0.1)")
	cmd.Flags().Uint16VarP(&port, "port", "p", 0, "Port to listen on (default 8000)")
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Path to a TOML route config file")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Path to a rotated log file (stdout is always logged to)")
	cmd.Flags().BoolVar(&watchConfig, "watch", false, "Hot-reload the config file on change")

	return cmd
}

type serveOptions struct {
	listen      string
	port        uint16
	filePath    string
	cliRoutes   []string
	logFile     string
	watchConfig bool
}

func runServe(opts serveOptions) error {
	log := logging.New(logging.Options{FilePath: opts.logFile})

	loadOpts := config.LoadOptions{
		FilePath:  opts.filePath,
		CLIListen: opts.listen,
		CLIPort:   opts.port,
		CLIRoutes: opts.cliRoutes,
	}
	cfg, err := config.Load(loadOpts)
	if err != nil {
		return err
	}

	routes, err := parseRoutes(cfg.Routes)
	if err != nil {
		return err
	}

	stderrSink := logging.NewStderrSink(log)
	h := gateway.New(router.New(routes), log, stderrSink)

	mux := http.NewServeMux()

	if opts.watchConfig {
		if opts.filePath == "" {
			return fmt.Errorf("--watch requires -f/--file")
		}
		feed := admin.NewFeed(log)
		w, err := watch.New(opts.filePath, loadOpts, h, feed, log)
		if err != nil {
			return fmt.Errorf("starting config watcher: %w", err)
		}
		defer w.Close()
		go w.Run()
		mux.Handle("/__shellgate/events", feed)
	}

	mux.Handle("/", h)

	addr := fmt.Sprintf("%s:%d", cfg.Listen, cfg.Port)
	log.Info("shellgate listening", "addr", addr, "routes", len(routes))
	return http.ListenAndServe(addr, mux)
}

func parseRoutes(specs []string) ([]*route.Route, error) {
	routes := make([]*route.Route, 0, len(specs))
	for _, spec := range specs {
		r, err := route.Parse(spec)
		if err != nil {
			return nil, fmt.Errorf("parsing route %q: %w", spec, err)
		}
		routes = append(routes, r)
	}
	return routes, nil
}
