package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/alexanderramin/ordersync/internal/cli"
	"github.com/alexanderramin/ordersync/internal/cli/formatter"
	"github.com/alexanderramin/ordersync/internal/config"
	"github.com/alexanderramin/ordersync/internal/db"
	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.LoadConfig()

	// Plain output when piped or when colors are switched off.
	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	formatter.SetColorEnabled(tty && !cfg.NoColor)

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	uow := db.NewSQLiteUnitOfWork(database)

	registry := prometheus.NewRegistry()
	observers := []service.UseCaseObserver{service.NewMetrics(registry)}
	if cfg.LogUseCases {
		observers = append(observers, service.NewLogUseCaseObserver(os.Stderr, cfg.LogLevel))
	}

	app := &cli.App{
		Orders:         service.NewOrderService(uow, observers...),
		Scheduling:     service.NewSchedulingService(uow, observers...),
		Advances:       service.NewAdvanceService(uow, observers...),
		Import:         service.NewImportService(uow, observers...),
		DefaultVersion: domain.OrderVersion(cfg.DefaultVersion),
	}

	execErr := cli.NewRootCmd(app).Execute()

	if cfg.MetricsDump {
		if err := service.WriteMetrics(os.Stderr, registry); err != nil && execErr == nil {
			return err
		}
	}
	return execErr
}
