// Package cmd wires configuration, the chain client and the two gateways
// behind the CLI entrypoints.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"chainlens/internal/analytics"
	"chainlens/internal/chain"
	"chainlens/internal/config"
	"chainlens/internal/logger"
	"chainlens/internal/render"
	"chainlens/internal/server"
	"chainlens/internal/store"
	"chainlens/internal/tools"
)

const (
	appName    = "chainlens"
	appVersion = "0.3.0"
)

// Run dispatches the subcommand. Exposed for main.
func Run() error {
	if len(os.Args) < 2 {
		printUsage()
		return fmt.Errorf("no command given")
	}

	switch os.Args[1] {
	case "serve":
		return runServe()
	case "tools":
		return runTools()
	case "report":
		return runReport(os.Args[2:])
	case "version":
		fmt.Printf("%s %s\n", appName, appVersion)
		return nil
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `%s — blockchain analytics gateway

Usage:
  %s serve              start the HTTP JSON API
  %s tools              start the tool-calling gateway on stdio
  %s report [-blocks N] print a one-shot ecosystem report
  %s version            print the version

Configuration is read from config/settings.yaml (created with defaults on
first run) plus RPC_URLS / PORT / LOG_LEVEL environment overrides.
`, appName, appName, appName, appName, appName)
}

// bootstrap loads config and builds the shared service stack.
func bootstrap() (*config.AppConfig, *analytics.Service, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	logger.Setup(cfg.LogLevel)

	rpc, err := chain.NewRPCManager(cfg.Chain.Name, cfg.Chain.ChainID, cfg.Chain.RPCURLs, cfg.ChainTimeout())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to set up chain client: %w", err)
	}

	var snapshots *store.Store
	if cfg.Store.DSN != "" {
		snapshots, err = store.Open(cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			// The store is an optional cache; run without it.
			log.Warnf("snapshot store disabled: %v", err)
			snapshots = nil
		}
	}

	svc := analytics.NewService(rpc, snapshots, analytics.Options{
		ChainName:      cfg.Chain.Name,
		DefaultBlocks:  cfg.Scan.BlocksToAnalyze,
		SampleCeiling:  cfg.Scan.SampleCeiling,
		BlockDelay:     cfg.BlockDelay(),
		WhaleThreshold: cfg.Scan.WhaleThreshold,
		CacheTTL:       cfg.CacheTTL(),
	})

	cleanup := func() { rpc.Close() }
	return cfg, svc, cleanup, nil
}

func runServe() error {
	cfg, svc, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	return server.New(svc, cfg.Server.Port, cfg.Server.CORSOrigins).Run()
}

func runTools() error {
	_, svc, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	registry := tools.NewAnalyticsRegistry(svc)
	return tools.NewStdioServer(registry, appName, appVersion).Serve(context.Background(), os.Stdin, os.Stdout)
}

func runReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	blocks := fs.Int("blocks", 0, "how many recent blocks to analyze")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, svc, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Println(render.Ecosystem(svc.EcosystemSummary(context.Background(), *blocks)))
	return nil
}
