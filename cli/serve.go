package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/yummyfi/yummyfi-backend/cart"
	"github.com/yummyfi/yummyfi-backend/database"
	"github.com/yummyfi/yummyfi-backend/export"
	"github.com/yummyfi/yummyfi-backend/kds"
	"github.com/yummyfi/yummyfi-backend/router"
	"github.com/yummyfi/yummyfi-backend/services"
	"github.com/yummyfi/yummyfi-backend/store"
	"github.com/yummyfi/yummyfi-backend/utils"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return runServe(ctx, a, seed)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", true, "insert the starter menu when the products table is empty")
	return cmd
}

func runServe(ctx context.Context, a *app, seed bool) error {
	if a.cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if seed {
		if err := database.SeedProducts(a.db, a.log); err != nil {
			return err
		}
	}

	carts, closeCarts, err := openCarts(ctx, a)
	if err != nil {
		return err
	}
	defer closeCarts()

	monitor := services.NewChangeMonitor(a.store, a.log)
	monitor.Interval = a.cfg.MonitorInterval
	a.orders.SetNotifier(monitor)
	if err := monitor.Start(ctx); err != nil {
		return fmt.Errorf("start change monitor: %w", err)
	}
	defer monitor.Stop()

	hub := kds.NewHub(a.clock, a.log)
	hubSub, err := a.orders.Subscribe(ctx, store.Query{})
	if err != nil {
		return err
	}
	defer hubSub.Close()
	go hub.Run(ctx, hubSub)

	sweeper := services.NewSweeper(a.orders, a.store, a.log)
	sweeper.Interval = a.cfg.SweepInterval
	sweepSub, err := a.orders.Subscribe(ctx, store.Query{})
	if err != nil {
		return err
	}
	defer sweepSub.Close()
	sweeper.SweepOnce(ctx)
	go sweeper.Run(ctx, sweepSub)

	blacklist := utils.NewTokenBlacklist()
	go purgeBlacklist(ctx, blacklist, a)

	loc, _ := a.cfg.Location()
	r := router.SetupRouter(router.Deps{
		DB:                a.db,
		Orders:            a.orders,
		Auth:              a.authService(blacklist),
		Carts:             carts,
		Sheets:            export.NewSheetsClient(a.cfg.SheetsWebAppURL, a.cfg.SheetsURL, loc, a.log),
		Hub:               hub,
		Location:          loc,
		AllowedOrigins:    a.cfg.AllowedOrigins,
		FrontendDir:       a.cfg.FrontendDir,
		RequestsPerSecond: a.cfg.RequestsPerSecond,
		Log:               a.log,
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("port", a.cfg.Port).Info("Listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("Shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openCarts picks Redis when REDIS_ADDR is set and process memory otherwise.
func openCarts(ctx context.Context, a *app) (cart.Store, func(), error) {
	if a.cfg.RedisAddr == "" {
		a.log.Info("REDIS_ADDR not set, keeping carts in memory")
		return cart.NewMemoryStore(a.clock), func() {}, nil
	}
	rs := cart.NewRedisStore(a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB, a.clock)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rs.Ping(pingCtx); err != nil {
		rs.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", a.cfg.RedisAddr, err)
	}
	a.log.WithField("addr", a.cfg.RedisAddr).Info("Carts stored in Redis")
	return rs, func() { rs.Close() }, nil
}

func purgeBlacklist(ctx context.Context, b *utils.TokenBlacklist, a *app) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := b.Purge(a.clock.Now()); n > 0 {
				a.log.WithField("purged", n).Debug("Purged expired tokens from blacklist")
			}
		}
	}
}
