package cli

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yummyfi/yummyfi-backend/config"
	"github.com/yummyfi/yummyfi-backend/cycle"
	"github.com/yummyfi/yummyfi-backend/database"
	"github.com/yummyfi/yummyfi-backend/services"
	"github.com/yummyfi/yummyfi-backend/store"
	"github.com/yummyfi/yummyfi-backend/utils"
)

// app is the wiring shared by every command: config, logger, database, order
// store and order service.
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	db     *gorm.DB
	clock  cycle.Clock
	store  *store.GormStore
	orders *services.OrderService
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := utils.NewLogger(cfg.LogLevel, cfg.LogFormat == "json")

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	policy, err := cfg.CancelPolicy()
	if err != nil {
		return nil, err
	}

	db, err := config.OpenDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db, log); err != nil {
		closeDB(db)
		return nil, err
	}

	clock := cycle.SystemClock{Location: loc}
	st := store.New(db, clock, log)
	return &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		clock:  clock,
		store:  st,
		orders: services.NewOrderService(st, clock, policy, log),
	}, nil
}

func (a *app) authService(blacklist *utils.TokenBlacklist) *services.AuthService {
	secret := a.cfg.JWTSecret
	if secret == "" {
		a.log.Warn("JWT_SECRET is not set, using a random secret; tokens will not survive a restart")
		secret = randomSecret()
	}
	return services.NewAuthService(a.db, utils.NewTokenIssuer(secret, a.cfg.TokenTTL), blacklist, a.cfg.AdminEmails, a.log)
}

func (a *app) Close() error {
	return errors.Join(a.store.Close(), closeDB(a.db))
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func randomSecret() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
