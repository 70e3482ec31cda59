package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	httpapi "github.com/shestoi/ebookshop/internal/api/http"
	"github.com/shestoi/ebookshop/internal/config"
	"github.com/shestoi/ebookshop/internal/email"
	"github.com/shestoi/ebookshop/internal/mercadopago"
	"github.com/shestoi/ebookshop/internal/repository/memory"
	"github.com/shestoi/ebookshop/internal/service"
	"github.com/shestoi/ebookshop/internal/signature"
	"github.com/shestoi/ebookshop/internal/templates"
	platformlogging "github.com/shestoi/ebookshop/platform/logging"
	platformobservability "github.com/shestoi/ebookshop/platform/observability"
	platformshutdown "github.com/shestoi/ebookshop/platform/shutdown"
)

// App содержит все зависимости для запуска и корректного shutdown Fulfillment Service
type App struct {
	logger      *zap.Logger
	httpServer  *http.Server
	shutdownMgr *platformshutdown.Manager
	wg          sync.WaitGroup
}

// Build создаёт и настраивает все зависимости Fulfillment Service
func Build(cfg config.Config) (*App, error) {
	const op = "app.Build"

	// Создаём logger
	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: "fulfillment",
		Env:         string(cfg.AppEnv),
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
	})
	if err != nil {
		return nil, err
	}

	logger = logger.With(zap.String("op", op))
	logger.Info("Building Fulfillment service", zap.String("http_addr", cfg.HTTPAddr))

	// Инициализируем observability (noop, если OTEL_ENABLED=false)
	otelShutdown, err := platformobservability.Init(context.Background(), platformobservability.Config{
		Enabled:               cfg.OTELEnabled,
		OTLPEndpoint:          cfg.OTELEndpoint,
		SamplingRatio:         cfg.OTELSamplingRatio,
		ServiceName:           "fulfillment",
		DeploymentEnvironment: string(cfg.AppEnv),
	})
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	// Загружаем продукт в память: файл читается один раз при старте,
	// отсутствие PDF обнаруживается до приёма трафика
	productData, err := os.ReadFile(cfg.PDFFilePath)
	if err != nil {
		return nil, fmt.Errorf("read product file %s: %w", cfg.PDFFilePath, err)
	}
	logger.Info("Product file loaded",
		zap.String("path", cfg.PDFFilePath),
		zap.Int("size_bytes", len(productData)),
	)

	// Шаблоны писем
	renderer, err := templates.NewRenderer(logger, cfg.TemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	// Клиент платёжного провайдера
	mpClient := mercadopago.NewClient(logger, mercadopago.Config{
		AccessToken:     cfg.MPAccessToken,
		BaseURL:         cfg.MPBaseURL,
		NotificationURL: cfg.NotificationURL,
		BackURLBase:     cfg.BackURLBase,
		ProductTitle:    cfg.ProductTitle,
		UnitPrice:       cfg.ProductUnitPrice,
	})

	// In-memory хранилища с TTL
	ledger := memory.NewMemoryLedger(cfg.LedgerTTL)
	processed := memory.NewMemoryProcessedPayments(cfg.DedupTTL)

	// Отправка продукта: SMTP либо no-op для dev окружения
	var sender service.ProductSender
	if cfg.EmailEnabled {
		sender = email.NewSMTPSender(logger, email.Config{
			Host: cfg.EmailHost,
			Port: cfg.EmailPort,
			User: cfg.EmailUser,
			Pass: cfg.EmailPass,
			From: cfg.EmailFrom,
		})
	} else {
		logger.Warn("Email disabled, using no-op sender")
		sender = email.NewNoOpSender(logger)
	}

	verifier := signature.NewVerifier(cfg.WebhookSecret)

	// Создаем service слой с зависимостями
	checkoutService := service.NewCheckoutService(logger, mpClient, ledger)
	processor := service.NewWebhookProcessor(
		logger,
		verifier,
		mpClient,
		ledger,
		processed,
		sender,
		renderer,
		service.Product{
			Data:     productData,
			Filename: cfg.PDFAttachmentName,
			Subject:  cfg.EmailSubject,
		},
		cfg.AllowUnsignedPings,
	)

	// Создаем HTTP handlers
	handler := httpapi.NewHandler(checkoutService, logger)
	webhookHandler := httpapi.NewWebhookHandler(processor, logger)

	// Сервис хранит всё состояние в памяти, готов сразу после Build
	readiness := func() bool { return true }

	// Настраиваем роутер
	router := httpapi.NewRouter(handler, webhookHandler, readiness, logger)

	// Создаём HTTP сервер
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Создаём shutdown manager
	shutdownMgr := platformshutdown.New(cfg.ShutdownTimeout, logger)

	// Регистрируем shutdown функции: выполняются в обратном порядке регистрации
	shutdownMgr.Add("observability", otelShutdown)
	shutdownMgr.Add("http_server", platformshutdown.ShutdownHTTPServer(httpServer))

	return &App{
		logger:      logger,
		httpServer:  httpServer,
		shutdownMgr: shutdownMgr,
	}, nil
}

// Run запускает сервис и блокируется до получения сигнала shutdown
func (a *App) Run() error {
	defer platformlogging.Sync(a.logger)

	a.logger.Info("Starting Fulfillment service", zap.String("addr", a.httpServer.Addr))
	a.logger.Info("Health check available", zap.String("url", "http://"+a.httpServer.Addr+"/health"))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Ожидаем сигнал и выполняем shutdown
	a.shutdownMgr.Wait()

	a.wg.Wait()
	a.logger.Info("Fulfillment service stopped")
	return nil
}
