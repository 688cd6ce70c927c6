package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/linkhive/backend/internal/access"
	"github.com/linkhive/backend/internal/auth"
	"github.com/linkhive/backend/internal/category"
	"github.com/linkhive/backend/internal/config"
	"github.com/linkhive/backend/internal/database"
	"github.com/linkhive/backend/internal/identity"
	"github.com/linkhive/backend/internal/links"
	"github.com/linkhive/backend/internal/logging"
	"github.com/linkhive/backend/internal/server"
	"github.com/linkhive/backend/internal/shares"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "linkhive-api",
		Short: "Linkhive bookmark-sharing backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Int("access-ttl-minutes", defaults.GetInt("token.access_ttl_minutes"), "Access token TTL in minutes")
	cmd.PersistentFlags().Int("refresh-ttl-minutes", defaults.GetInt("token.refresh_ttl_minutes"), "Refresh token TTL in minutes")
	cmd.PersistentFlags().String("access-secret", "", "Access token signing secret (overrides env)")
	cmd.PersistentFlags().String("refresh-secret", "", "Refresh token signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "token.access_ttl_minutes", "access-ttl-minutes")
	bindFlag(cmd, "token.refresh_ttl_minutes", "refresh-ttl-minutes")
	bindFlag(cmd, "auth.access_secret", "access-secret")
	bindFlag(cmd, "auth.refresh_secret", "refresh-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	tokenManager := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		AccessSecret:    []byte(appConfig.AccessSecret),
		RefreshSecret:   []byte(appConfig.RefreshSecret),
		Issuer:          "linkhive-api",
		AccessTokenTTL:  appConfig.AccessTokenTTL,
		RefreshTokenTTL: appConfig.RefreshTokenTTL,
	})

	identityService, err := identity.NewService(identity.ServiceConfig{
		Database: db,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	categoryRegistry, err := category.NewRegistry(db)
	if err != nil {
		return err
	}

	shareService, err := shares.NewService(shares.ServiceConfig{
		Database: db,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	evaluator, err := access.NewEvaluator(shareService)
	if err != nil {
		return err
	}

	linkService, err := links.NewService(links.ServiceConfig{
		Database:   db,
		Evaluator:  evaluator,
		Categories: categoryRegistry,
		Shared:     shareService,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Identities:        identityService,
		Categories:        categoryRegistry,
		Links:             linkService,
		Shares:            shareService,
		Tokens:            tokenManager,
		Logger:            logger,
		RefreshCookieName: appConfig.RefreshCookieName,
		AllowedOrigins:    appConfig.AllowedOrigins,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
