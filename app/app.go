// Package app assembles the services shared by the HTTP server and the
// recovery CLI.
package app

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"newsletter/cache"
	"newsletter/config"
	"newsletter/recovery"
	"newsletter/store"
	"newsletter/subscription"
	"newsletter/verifier"
)

type App struct {
	Config       config.Config
	DB           *gorm.DB
	Store        *store.Store
	Validator    *verifier.Validator
	Subscription *subscription.Service
	Recovery     *recovery.Service
	Inspector    verifier.Inspector
	Logger       *logrus.Logger

	domainCache *cache.RedisStorage
}

// New wires every service on top of an open database. A Redis failure is
// logged and the validator falls back to its in-process domain cache.
func New(cfg config.Config, db *gorm.DB, logger *logrus.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		DB:     db,
		Store:  store.New(db),
		Logger: logger,
	}

	var domainCache verifier.Cache
	redisStorage, err := config.NewDomainCache(cfg)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, using in-memory domain cache")
	} else if redisStorage != nil {
		a.domainCache = redisStorage
		domainCache = verifier.NewStorageCache(redisStorage)
	}

	vc, err := config.VerifierConfig(cfg, domainCache)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("validator config: %w", err)
	}
	a.Validator = verifier.New(vc)
	a.Subscription = subscription.NewService(a.Store, a.Validator, verifier.NewRateLimiter(cfg.MaxDailySubscriptionsPerIP))
	a.Recovery = recovery.NewService(a.Store, a.Validator)
	a.Inspector = verifier.NewWhoisInspector()

	logger.WithFields(logrus.Fields{
		"disposable_domains": a.Validator.DisposableFilter().Len(),
		"redis_cache":        a.domainCache != nil,
	}).Info("Validator ready")
	return a, nil
}

// Open loads the database from cfg and wires the services on top of it.
func Open(cfg config.Config, logger *logrus.Logger) (*App, error) {
	db, err := config.ConnectDB(cfg)
	if err != nil {
		return nil, err
	}
	return New(cfg, db, logger)
}

func (a *App) Close() {
	if a.domainCache != nil {
		if err := a.domainCache.Close(); err != nil {
			a.Logger.WithError(err).Warn("Failed to close redis")
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
