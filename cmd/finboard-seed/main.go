package main

import (
	"flag"
	"os"

	"finboard/internal/auth"
	"finboard/internal/cli"
	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/services"
)

func main() {
	var (
		opts seedOptions
		seed int64
	)
	flag.StringVar(&opts.Email, "email", "", "email of the demo user (random when empty)")
	flag.StringVar(&opts.Password, "password", "", "password of the demo user (random when empty)")
	flag.IntVar(&opts.Transactions, "transactions", 120, "number of transactions to create")
	flag.IntVar(&opts.Goals, "goals", 3, "number of financial goals to create")
	flag.IntVar(&opts.Habits, "habits", 4, "number of habits to create")
	flag.IntVar(&opts.Months, "months", 6, "how many months back transactions may be dated")
	flag.Int64Var(&seed, "seed", 0, "random seed for reproducible data (0 picks one)")
	flag.Parse()

	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()
	logger = logger.WithComponent(applog.ComponentSeed)

	ctx, stop := cli.SignalContext()
	defer stop()

	backendRes := cli.OpenStore(ctx, logger, cfg)
	defer func() {
		if backendRes.Cleanup != nil {
			if err := backendRes.Cleanup(); err != nil {
				logger.Error("Failed to close store", applog.FieldError, err)
			}
		}
	}()
	st := backendRes.Store

	s := &seeder{
		auth:         services.NewAuthService(st, auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL), logger),
		transactions: services.NewTransactionService(st, nil, nil, logger),
		goals:        services.NewGoalService(st, nil, logger),
		habits:       services.NewHabitService(st, nil, logger),
		faker:        newFaker(seed),
		today:        core.Today(),
		logger:       logger,
	}

	res, err := s.run(ctx, opts)
	if err != nil {
		logger.Error("Seeding failed", applog.FieldError, err)
		stop()
		os.Exit(1)
	}
	logger.Info("Seeding complete",
		applog.FieldOwner, res.Owner,
		"transactions", res.Transactions,
		"goals", res.Goals,
		"habits", res.Habits)
}
