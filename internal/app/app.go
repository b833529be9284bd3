// Package app はプロセスの起動、依存関係のワイヤリング、サブコマンドの実行を担う。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/contactbook/internal/auth"
	"github.com/hitoshi/contactbook/internal/config"
	"github.com/hitoshi/contactbook/internal/contact"
	"github.com/hitoshi/contactbook/internal/handler"
	"github.com/hitoshi/contactbook/internal/identity"
	"github.com/hitoshi/contactbook/internal/logger"
	"github.com/hitoshi/contactbook/internal/metrics"
	"github.com/hitoshi/contactbook/internal/middleware"
	"github.com/hitoshi/contactbook/internal/repository"
	"github.com/hitoshi/contactbook/internal/schema"
	"github.com/hitoshi/contactbook/internal/security"
	"github.com/prometheus/client_golang/prometheus"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、LOG_LEVELに従ってJSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再設定する
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetupDefault(w, level)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd, err := ParseCommand(args)
	if err != nil {
		return err
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = config.DefaultServerPort
		}
		return runHealthcheck(fmt.Sprintf("http://localhost:%s/health", port))
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("store_backend", cfg.StoreBackend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandMigrate:
		return runMigrate(ctx, cfg)
	default:
		return runServe(ctx, cfg, nil)
	}
}

// service はAPIサーバーの組み立て済みの依存関係。
type service struct {
	handler http.Handler
	limiter *middleware.RateLimiter
}

// buildService はKVストアの上に全依存関係をワイヤリングする。
// データマイグレーションに失敗した場合は起動を中止する。
func buildService(ctx context.Context, cfg *config.Config, kv repository.KVStore, reg *prometheus.Registry) (*service, error) {
	collector := metrics.NewCollector(reg)

	// 1. データマイグレーション
	version, err := runDataMigrations(ctx, kv, collector)
	if err != nil {
		return nil, err
	}
	slog.Info("data schema is up to date", slog.Int("schema_version", version))

	// 2. ユーザーの読み込み
	seed := identity.DefaultSeed()
	if cfg.UsersFile != "" {
		seed, err = identity.LoadSeedFile(cfg.UsersFile)
		if err != nil {
			return nil, err
		}
	}
	users, err := identity.NewStore(seed, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to build identity store: %w", err)
	}

	// 3. 連絡先ストア
	contacts := contact.NewStore(kv)
	if cfg.SeedSampleContacts {
		if _, err := contacts.SeedSamples(ctx); err != nil {
			return nil, fmt.Errorf("failed to seed sample contacts: %w", err)
		}
	}

	// 4. 認証
	authService := auth.NewService(users, auth.NewTokenCodec(nil))

	// 5. ルーターの構築
	limiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitLogin), collector)

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       limiter,
		LatencyMax:        cfg.FakeLatencyMax,
		Metrics:           collector,
		Gatherer:          reg,

		Authenticator: authService,
		AuthService:   authService,

		Contacts:  contacts,
		Sanitizer: security.NewContactInputSanitizer(),

		Users:  users,
		Health: kv,
	})

	return &service{handler: router, limiter: limiter}, nil
}

// runDataMigrations はKVストア上のデータマイグレーションを実行する。
func runDataMigrations(ctx context.Context, kv repository.KVStore, recorder metrics.MetricsCollector) (int, error) {
	migrator := schema.NewMigrator(kv, func(m schema.Migration) {
		recorder.RecordMigration(m.Version)
	})
	version, err := migrator.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("data migration failed: %w", err)
	}
	return version, nil
}

// runServe はAPIサーバーモードで起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
// readyがnilでない場合、待ち受けを開始したアドレスを送信する。
func runServe(ctx context.Context, cfg *config.Config, ready chan<- string) error {
	// 1. ストレージ
	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	// 2. 依存関係のワイヤリング
	svc, err := buildService(ctx, cfg, be.kv, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer svc.limiter.Stop()

	// 3. HTTPサーバーの起動
	server := &http.Server{
		Handler:      svc.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", ":"+cfg.ServerPort)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	if ready != nil {
		ready <- ln.Addr().String()
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はマイグレーションを実行する。
// postgresではバックエンドを開く際にDDLが適用され、その後データマイグレーションを実行する。
func runMigrate(ctx context.Context, cfg *config.Config) error {
	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	version, err := runDataMigrations(ctx, be.kv, metrics.Nop{})
	if err != nil {
		return err
	}

	slog.Info("migrations completed successfully", slog.Int("schema_version", version))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(url string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
