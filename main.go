package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appcart "github.com/brewline/brewline/internal/application/cart"
	appcatalog "github.com/brewline/brewline/internal/application/catalog"
	appcheckout "github.com/brewline/brewline/internal/application/checkout"
	"github.com/brewline/brewline/internal/application/recorder"
	"github.com/brewline/brewline/internal/config"
	dompayment "github.com/brewline/brewline/internal/domain/payment"
	"github.com/brewline/brewline/internal/infrastructure/airtable"
	"github.com/brewline/brewline/internal/infrastructure/id"
	"github.com/brewline/brewline/internal/infrastructure/notify"
	"github.com/brewline/brewline/internal/infrastructure/observability/oteltrace"
	"github.com/brewline/brewline/internal/infrastructure/observability/prometrics"
	"github.com/brewline/brewline/internal/infrastructure/observability/telemetry"
	"github.com/brewline/brewline/internal/infrastructure/observability/zaplogger"
	"github.com/brewline/brewline/internal/infrastructure/outbox"
	paymentprovider "github.com/brewline/brewline/internal/infrastructure/payment"
	"github.com/brewline/brewline/internal/observability"
	"github.com/brewline/brewline/internal/presentation/telegram"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		// Logger is not up yet; write directly and bail.
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := zaplogger.New(
		observability.F("service", settings.ServiceName),
		observability.F("env", settings.Env),
	)

	registry := prometrics.New("", "")
	counters := map[string]observability.Counter{
		observability.MUsecaseRequests: registry.Counter(
			observability.MUsecaseRequests,
			"Total number of use case invocations.",
			"use_case", "outcome",
		),
		observability.MBotUpdates: registry.Counter(
			observability.MBotUpdates,
			"Total number of handled bot updates.",
			"handler", "outcome",
		),
		observability.MExternalRequests: registry.Counter(
			observability.MExternalRequests,
			"Total number of calls to external peers.",
			"peer", "endpoint", "outcome",
		),
	}
	histograms := map[string]observability.Histogram{
		observability.MUsecaseDuration: registry.Histogram(
			observability.MUsecaseDuration,
			"Duration of use case execution in seconds.",
			prometheus.DefBuckets,
			"use_case",
		),
		observability.MBotUpdateDuration: registry.Histogram(
			observability.MBotUpdateDuration,
			"Duration of bot update handling in seconds.",
			prometheus.DefBuckets,
			"handler",
		),
		observability.MExternalRequestDuration: registry.Histogram(
			observability.MExternalRequestDuration,
			"Duration of external calls in seconds.",
			prometheus.DefBuckets,
			"peer", "endpoint",
		),
	}
	tel := telemetry.New(oteltrace.New(settings.ServiceName), logger, counters, histograms)

	store := airtable.NewClient(settings.AirtableBaseID, settings.AirtableAPIKey)
	catalogRepo := airtable.NewCatalogRepository(store, settings.TableMenu)
	clientRepo := airtable.NewClientRepository(store, settings.TableClients)
	saleRepo := airtable.NewSaleRepository(store, settings.TableSales)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := outbox.NewBus(logger)
	bus.Start(ctx)
	defer bus.Stop(context.Background())

	carts := appcart.NewStore(logger)
	catalogView := appcatalog.NewView(catalogRepo, settings.PageSize, logger)
	orderRecorder := recorder.NewService(clientRepo, saleRepo, tel)
	idGenerator := id.NewUUIDGenerator()

	providers := map[dompayment.Method]dompayment.Provider{
		dompayment.MethodCash: paymentprovider.NewCash(),
		dompayment.MethodQR:   paymentprovider.NewStaticQR(settings.QRPayloadPrefix),
	}
	flow := appcheckout.NewFlow(carts, orderRecorder, providers, bus, idGenerator, tel)

	api, err := tgbotapi.NewBotAPI(settings.BotToken)
	if err != nil {
		logger.Error("bot_init_failed", observability.F("error", err.Error()))
		os.Exit(1)
	}
	bot := telegram.NewBot(api, catalogView, carts, flow, orderRecorder, idGenerator, tel)

	notifier := notify.NewAdminNotifier(bus, bot, settings.AdminChatID, logger)
	notifier.Start()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: settings.MetricsAddr, Handler: metricsMux}

	go func() {
		logger.Info("metrics_server_start", observability.F("addr", metricsServer.Addr))
		err := metricsServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics_server_error", observability.F("error", err.Error()))
		}
	}()

	go bot.Run(ctx)
	logger.Info("bot_started", observability.F("page_size", settings.PageSize))

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics_server_shutdown_error", observability.F("error", err.Error()))
	} else {
		logger.Info("metrics_server_stopped")
	}
}
