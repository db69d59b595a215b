package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/example/service-agenda/internal/application"
	"github.com/example/service-agenda/internal/config"
	"github.com/example/service-agenda/internal/logging"
	"github.com/example/service-agenda/internal/persistence/sqlite"
)

const defaultConfigPath = "agenda.yaml"

type app struct {
	cfg    config.Config
	logger *slog.Logger
	now    func() time.Time

	clients       *application.ClientService
	employees     *application.EmployeeService
	catalog       *application.CatalogService
	interventions *application.InterventionService
	recurrence    *application.RecurrenceService
	agenda        *application.AgendaService
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, os.Args[1:]); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, args []string) error {
	configPath := strings.TrimSpace(os.Getenv("AGENDA_CONFIG"))
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	now := func() time.Time { return time.Now().In(location) }

	pool, err := sqlite.Open("file:" + cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(ctx, logger); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	idGenerator := uuid.NewString

	clientRepo := sqlite.NewClientRepository(pool)
	employeeRepo := sqlite.NewEmployeeRepository(pool)
	serviceRepo := sqlite.NewServiceRepository(pool)
	interventionRepo := sqlite.NewInterventionRepository(pool)
	ruleRepo := sqlite.NewRecurrenceRuleRepository(pool)

	a := &app{
		cfg:           cfg,
		logger:        logger,
		now:           now,
		clients:       application.NewClientService(clientRepo, idGenerator, now, logger),
		employees:     application.NewEmployeeService(employeeRepo, idGenerator, now, logger),
		catalog:       application.NewCatalogService(serviceRepo, idGenerator, now, logger),
		interventions: application.NewInterventionService(interventionRepo, clientRepo, serviceRepo, employeeRepo, idGenerator, now, logger),
		recurrence:    application.NewRecurrenceService(ruleRepo, clientRepo, serviceRepo, employeeRepo, idGenerator, now, logger),
	}
	a.agenda = application.NewAgendaService(interventionRepo, ruleRepo, clientRepo, serviceRepo, employeeRepo, now, logger)

	// Startup housekeeping: lapsed active rules roll forward so recurring
	// appointments keep appearing after the new year.
	if _, err := a.recurrence.ExtendStaleRules(ctx); err != nil {
		return fmt.Errorf("extend stale rules: %w", err)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.HousekeepingCron, func() {
		jobCtx := logging.ContextWithLogger(context.Background(), logger.With("job", "housekeeping"))
		if _, err := a.recurrence.ExtendStaleRules(jobCtx); err != nil {
			logger.Error("scheduled housekeeping failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule housekeeping %q: %w", cfg.HousekeepingCron, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	if len(args) == 0 {
		return usageError()
	}
	command, rest := args[0], args[1:]
	ctx = logging.ContextWithLogger(ctx, logger.With("command", command))
	switch command {
	case "month":
		return a.monthCommand(ctx, rest)
	case "day":
		return a.dayCommand(ctx, rest)
	case "list":
		return a.listCommand(ctx)
	case "export-ics":
		return a.exportICSCommand(ctx, rest)
	case "export-xlsx":
		return a.exportXLSXCommand(ctx, rest)
	case "holidays":
		return a.holidaysCommand(rest)
	case "clients":
		return a.clientsCommand(ctx)
	case "employees":
		return a.employeesCommand(ctx)
	case "services":
		return a.servicesCommand(ctx)
	case "watch":
		// Keeps the process alive so the cron housekeeping fires.
		<-ctx.Done()
		return nil
	}
	return usageError()
}

func usageError() error {
	return fmt.Errorf("usage: agenda <month|day|list|clients|employees|services|export-ics|export-xlsx|holidays|watch> [args]")
}
