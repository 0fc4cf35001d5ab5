// Package app は起動モードの振り分けと依存関係のワイヤリングを担う。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/irfanmanzoor12/Toda-App/internal/auth"
	"github.com/irfanmanzoor12/Toda-App/internal/config"
	"github.com/irfanmanzoor12/Toda-App/internal/database"
	"github.com/irfanmanzoor12/Toda-App/internal/handler"
	"github.com/irfanmanzoor12/Toda-App/internal/logger"
	"github.com/irfanmanzoor12/Toda-App/internal/metrics"
	"github.com/irfanmanzoor12/Toda-App/internal/middleware"
	"github.com/irfanmanzoor12/Toda-App/internal/repository"
	"github.com/irfanmanzoor12/Toda-App/internal/todo"
)

// HTTPサーバーのタイムアウト設定。
const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Init はロガーをグローバルに設定し、環境変数から設定を読み込む。
// ログ出力先はwで指定する（本番はos.Stdout）。
func Init(w io.Writer) (*config.Config, error) {
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// Run はエントリーポイント。argsにはos.Args[1:]を渡す。
// サブコマンド（serve/migrate/healthcheck)に応じたモードで実行する。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheckはDBにも設定にも触れないため、初期化を省いて即実行する
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	if cmd == CommandMigrate {
		return runMigrate(cfg)
	}
	return runServe(cfg)
}

// runServe は全依存関係を組み立ててAPIサーバーを起動し、
// SIGINT/SIGTERMでグレースフルシャットダウンする。
func runServe(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established")

	userRepo := repository.NewPostgresUserRepo(db)
	todoRepo := repository.NewPostgresTodoRepo(db)

	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.JWTTTL)
	authService := auth.NewService(userRepo, hasher, tokens)
	todoService := todo.NewService(todoRepo)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 設定値はreq/min単位、rate.Limitはreq/sec単位
	rlCfg := middleware.DefaultRateLimiterConfig()
	rlCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rlCfg.GeneralBurst = cfg.RateLimitGeneral
	rlCfg.AuthRate = rate.Limit(float64(cfg.RateLimitAuth) / 60.0)
	rlCfg.AuthBurst = cfg.RateLimitAuth
	rateLimiter := middleware.NewRateLimiter(rlCfg)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		TokenVerifier:     tokens,
		UserFinder:        userRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		AuthService: authService,
		TodoService: todoService,

		Metrics:  collector,
		Gatherer: registry,
		DB:       db,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	slog.Info("API server stopped gracefully")
	return nil
}

func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed")
	return nil
}

// runHealthcheck は稼働中サーバーの/healthを1回だけ叩く。
// Docker HEALTHCHECKから呼ばれるため、結果は終了コードだけで伝える。
func runHealthcheck(port string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(fmt.Sprintf("http://localhost:%s/health", port))
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// maskDatabaseURL は接続URLのパスワード部を伏せたログ用文字列を返す。
// URLとして解釈できない・認証情報を含まない値は全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return "***"
	}
	return u.Redacted()
}
