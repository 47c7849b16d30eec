package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/miyobam/myb/internal/activity"
	"github.com/miyobam/myb/internal/auth"
	"github.com/miyobam/myb/internal/catalog"
	"github.com/miyobam/myb/internal/config"
	"github.com/miyobam/myb/internal/contest"
	"github.com/miyobam/myb/internal/database"
	"github.com/miyobam/myb/internal/forum"
	"github.com/miyobam/myb/internal/handler"
	"github.com/miyobam/myb/internal/library"
	"github.com/miyobam/myb/internal/logger"
	"github.com/miyobam/myb/internal/metrics"
	"github.com/miyobam/myb/internal/middleware"
	"github.com/miyobam/myb/internal/payments"
	"github.com/miyobam/myb/internal/repository"
	"github.com/miyobam/myb/internal/security"
	"github.com/miyobam/myb/internal/session"
	"github.com/miyobam/myb/internal/stories"
	"github.com/miyobam/myb/internal/tables"
	"github.com/miyobam/myb/internal/view"
	"github.com/miyobam/myb/internal/worker/cleanup"
	"github.com/miyobam/myb/internal/worker/settle"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
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
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はWebサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続（セッション・デモアカウント・表示設定のローカル状態）
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	sessionRepo := repository.NewPostgresSessionRepo(db)
	accountRepo := repository.NewPostgresDemoAccountRepo(db)
	prefRepo := repository.NewPostgresPreferenceRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. テーブルバックエンドのクライアント
	backendClient := &http.Client{Timeout: cfg.BackendTimeout}
	httpSource := tables.NewHTTPSource(backendClient, slog.Default(), cfg.BackendBaseURL).
		WithObserver(collector)
	// バックエンド障害時はデモカタログへ縮退する
	source := tables.NewFallbackSource(httpSource, slog.Default())

	authClient := tables.NewAuthClient(backendClient, slog.Default(), cfg.BackendBaseURL)
	uploadClient := tables.NewUploadClient(backendClient, slog.Default(), cfg.BackendBaseURL)

	// 5. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 6. ドメインサービスの初期化
	authService := auth.NewService(
		authClient, accountRepo, sessionRepo,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)
	catalogService := catalog.NewService(source)
	libraryService := library.NewService(source)
	paymentService := payments.NewService(source)
	storyService := stories.NewService(source, uploadClient, ssrfGuard,
		stories.ServiceConfig{UploadMaxSize: cfg.UploadMaxSize})
	contestService := contest.NewService(source)
	forumService := forum.NewService(source)
	activityService := activity.NewService(source)

	// 7. ビューとハンドラーの構築
	renderer, err := view.NewRenderer(sanitizer)
	if err != nil {
		return fmt.Errorf("failed to build renderer: %w", err)
	}

	h := handler.NewHandler(&handler.Deps{
		Auth:     authService,
		Catalog:  catalogService,
		Library:  libraryService,
		Payments: paymentService,
		Stories:  storyService,
		Contests: contestService,
		Forum:    forumService,
		Activity: activityService,

		Renderer: renderer,
		States:   session.NewStore(),
		Prefs:    prefRepo,
		Metrics:  collector,

		Config: handler.Config{
			CookieSecure:  cfg.CookieSecure,
			CookieMaxAge:  cfg.SessionMaxAge,
			UploadMaxSize: cfg.UploadMaxSize,
		},
	})

	// 8. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitUpload),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		SessionResumer: authService,
		SessionConfig: middleware.SessionConfig{
			CookieSecure: cfg.CookieSecure,
			CookieMaxAge: cfg.SessionMaxAge,
		},
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		RateLimiter: rateLimiter,
		Logger:      slog.Default(),
		Handler:     h,
	})

	// /metrics はセッションやCSRFのミドルウェアを通さず直接公開する
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	mux.Handle("/", router)

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("web server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down web server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("web server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// モバイルマネー決済の承認スケジューラとローカル状態のクリーンアップジョブを
// 実行する。SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続（クリーンアップ対象のローカル状態）
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 3. テーブルバックエンドのクライアント
	backendClient := &http.Client{Timeout: cfg.BackendTimeout}
	source := tables.NewHTTPSource(backendClient, slog.Default(), cfg.BackendBaseURL).
		WithObserver(collector)

	// 4. 決済承認スケジューラの初期化
	paymentService := payments.NewService(source)
	scheduler := settle.NewScheduler(paymentService, collector, slog.Default(), cfg.SettleDelay)

	// 5. クリーンアップジョブの初期化
	cleanupJob := cleanup.NewCleanupJob(db, slog.Default())

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("settle_interval", cfg.SettleInterval),
		slog.Duration("settle_delay", cfg.SettleDelay),
	)

	// メトリクスエンドポイントをバックグラウンドで公開
	metricsServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: metrics.SetupMetricsRoute(registry),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		metricsServer.Shutdown(shutdownCtx)
	}()

	// クリーンアップジョブを日次でバックグラウンド実行
	go func() {
		// 起動直後に1回実行
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := cleanupJob.Run(ctx); err != nil {
					slog.Error("cleanup job failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	// 決済承認スケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx, cfg.SettleInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
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

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
