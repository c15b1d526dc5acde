package cli

import (
	"errors"
	"fmt"
	"log"

	"microloan-backend/internal/adapter/repository/mysql"
	"microloan-backend/internal/config"
	"microloan-backend/internal/domain/loan"
	"microloan-backend/internal/infrastructure/cache"
	"microloan-backend/internal/infrastructure/db"
	loanuc "microloan-backend/internal/usecase/loan"
	"microloan-backend/internal/usecase/penalty"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// app is everything both commands need, built from one Config.
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	rdb     *redis.Client // nil when REDIS_ADDR is empty
	clock   loan.Clock
	loans   *loanuc.Usecase
	penalty *penalty.Orchestrator
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var gdb *gorm.DB
	switch cfg.DBDriver {
	case "sqlite":
		gdb, err = db.OpenSQLite(cfg.SQLitePath)
	default:
		gdb, err = db.OpenGorm(cfg.MySQLDSN())
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, db: gdb, clock: loan.SystemClock}
	var opts []penalty.Option
	if cfg.RedisAddr != "" {
		if a.rdb, err = cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB); err != nil {
			a.close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		opts = append(opts, penalty.WithLocker(cache.NewSweepLock(a.rdb, cfg.SweepLockTTL())))
	} else {
		log.Println("redis: REDIS_ADDR empty, idempotency and sweep lock disabled")
	}
	opts = append(opts, penalty.WithWorkers(cfg.SweepWorkers))

	u := mysql.NewGormUoW(gdb)
	// reads outside a transaction use the same repositories on the pool
	repos := u.Repos()
	a.loans = loanuc.NewUsecase(u, repos, a.clock, loanuc.Limits{
		MaxAmount:        cfg.MaxLoanAmount,
		DefaultDailyRate: cfg.DefaultDailyRate,
	})
	a.penalty = penalty.NewOrchestrator(u, repos, a.clock, opts...)
	return a, nil
}

func (a *app) close() {
	var errList []error
	if a.rdb != nil {
		errList = append(errList, a.rdb.Close())
	}
	if sqlDB, err := a.db.DB(); err == nil {
		errList = append(errList, sqlDB.Close())
	}
	if err := errors.Join(errList...); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
