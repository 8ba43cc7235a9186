package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hifideliveryeats/cartsync/internal/cartsync"
	"github.com/hifideliveryeats/cartsync/internal/catalog"
	"github.com/hifideliveryeats/cartsync/internal/mirror"
	"github.com/hifideliveryeats/cartsync/pkg/cartapi"
	"github.com/hifideliveryeats/cartsync/pkg/config"
	"github.com/hifideliveryeats/cartsync/pkg/instance"
	"github.com/hifideliveryeats/cartsync/pkg/logger"
	"github.com/hifideliveryeats/cartsync/pkg/metrics"
	"github.com/hifideliveryeats/cartsync/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cartctl", Output: os.Stderr})

	_ = godotenv.Load()

	customer := flag.String("customer", "", "customer id (defaults to CARTSYNC_BACKEND_CUSTOMER_ID)")
	asJSON := flag.Bool("json", false, "print JSON instead of tables")
	metricsFile := flag.String("metrics-file", "", "write sync metrics to this file on exit (prometheus text format)")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), usage)
		fmt.Fprintln(flag.CommandLine.Output(), "\nflags:")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cartctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Output:      os.Stderr,
	})

	customerID := cfg.Backend.CustomerID
	if *customer != "" {
		customerID = *customer
	}
	if customerID == "" {
		fmt.Fprintln(os.Stderr, "missing -customer or CARTSYNC_BACKEND_CUSTOMER_ID")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
		"backend":  cfg.Backend.BaseURL,
	})

	client, err := cartapi.NewFromConfig(cfg.Backend, cartapi.WithCustomerID(customerID))
	if err != nil {
		logg.Error(ctx, "failed to create cart client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	catalogOpts := []catalog.Option{catalog.WithLogger(logg)}
	syncOpts := []cartsync.Option{
		cartsync.WithLogger(logg),
		cartsync.WithCustomerID(customerID),
		cartsync.WithMetrics(metrics.NewSyncMetrics(registry)),
	}

	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			// The cache and mirror are optional; carry on without them.
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "redis unavailable, running without cache and mirror")
		} else {
			defer redisClient.Close()
			catalogOpts = append(catalogOpts, catalog.WithCache(redisClient, redisClient.CatalogKey(client.CatalogSource()), cfg.Catalog.CacheTTL))
			if cfg.FeatureFlags.Mirror {
				cartMirror, err := mirror.NewRedisMirror(redisClient, customerID, mirror.DefaultTTL)
				if err != nil {
					logg.Error(ctx, "failed to create cart mirror", err)
					os.Exit(1)
				}
				syncOpts = append(syncOpts, cartsync.WithMirror(cartMirror))
			}
		}
	}

	snapshot, err := catalog.New(client, catalogOpts...)
	if err != nil {
		logg.Error(ctx, "failed to create catalog snapshot", err)
		os.Exit(1)
	}
	synchronizer, err := cartsync.New(client, syncOpts...)
	if err != nil {
		logg.Error(ctx, "failed to create cart synchronizer", err)
		os.Exit(1)
	}

	a := &app{
		sync:    synchronizer,
		catalog: snapshot,
		out:     os.Stdout,
		asJSON:  *asJSON,
	}
	runErr := a.run(ctx, flag.Arg(0), flag.Args()[1:])
	if err := writeMetrics(*metricsFile, registry); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "cartctl.metrics_write_failed")
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, "error:", runErr)
		stop()
		os.Exit(1)
	}
}

