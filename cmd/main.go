package main

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/leonelquinteros/gotext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"

	"crypto-alert-bot/config"
	"crypto-alert-bot/internal/alert"
	"crypto-alert-bot/internal/database"
	"crypto-alert-bot/internal/price"
	"crypto-alert-bot/internal/telegram"
)

type BotMetrics struct {
	CommandsProcessed   prometheus.Counter
	MessagesHandled     prometheus.Counter
	CyclesRun           prometheus.Counter
	AlertsSent          prometheus.Counter
	AlertsSuppressed    prometheus.Counter
	ActiveSubscriptions prometheus.Gauge
	AlertsPerAsset      *prometheus.CounterVec
	Mutex               sync.Mutex
}

var metrics = NewBotMetrics()

func init() {
	config.InitConfig()
	setupLogging()
}

func NewBotMetrics() *BotMetrics {
	m := &BotMetrics{
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptoalert",
			Subsystem: "bot",
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptoalert",
			Subsystem: "bot",
			Name:      "messages_handled",
			Help:      "The total number of handled messages",
		}),
		CyclesRun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptoalert",
			Subsystem: "bot",
			Name:      "cycles_run",
			Help:      "The total number of alert evaluation cycles",
		}),
		AlertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptoalert",
			Subsystem: "bot",
			Name:      "alerts_sent",
			Help:      "The total number of alert notifications delivered",
		}),
		AlertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptoalert",
			Subsystem: "bot",
			Name:      "alerts_suppressed",
			Help:      "The total number of alerts suppressed as duplicates",
		}),
		ActiveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cryptoalert",
			Subsystem: "bot",
			Name:      "active_subscriptions",
			Help:      "The current number of active subscriptions",
		}),
		AlertsPerAsset: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cryptoalert",
				Subsystem: "bot",
				Name:      "alerts_per_asset",
				Help:      "The total number of alerts delivered per asset",
			},
			[]string{"asset"},
		),
	}

	prometheus.MustRegister(m.CommandsProcessed)
	prometheus.MustRegister(m.MessagesHandled)
	prometheus.MustRegister(m.CyclesRun)
	prometheus.MustRegister(m.AlertsSent)
	prometheus.MustRegister(m.AlertsSuppressed)
	prometheus.MustRegister(m.ActiveSubscriptions)
	prometheus.MustRegister(m.AlertsPerAsset)

	return m
}

func main() {
	gotext.Configure("locales", strings.ToLower(config.GetString("lang")), "default")

	store, err := database.Open(config.GetString("db_path"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	LoadMetricsFromDB(store)

	cache := price.NewCache(
		time.Duration(config.GetInt("price_ttl_seconds"))*time.Second, nil)
	prices := price.NewService(
		config.GetString("price_api_url"),
		time.Duration(config.GetInt("fetch_timeout_seconds"))*time.Second,
		cache)

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          config.GetString("telegram_bot_token"),
		Debug:          config.GetBool("debug"),
		UpdatesTimeout: 60,
	}, store, prices)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	engine := alert.NewEngine(store, prices, bot, alert.Config{
		ThrottleWindow:      time.Duration(config.GetInt("throttle_window_hours")) * time.Hour,
		ThrottleTolerance:   config.GetFloat64("throttle_tolerance_percent"),
		Retention:           time.Duration(config.GetInt("retention_days")) * 24 * time.Hour,
		HighVolumeThreshold: config.GetInt("high_volume_threshold"),
		AdminChatID:         config.GetInt64("admin_chat_id"),
	}, nil)

	engine.Start(
		time.Duration(config.GetInt("poll_interval_seconds"))*time.Second,
		func(stats alert.CycleStats) { recordCycleStats(store, stats) })

	updates, err := bot.GetUpdatesChannel()
	if err != nil {
		log.Fatalf("Failed to get updates channel: %v", err)
	}

	go handleUpdates(bot, updates)

	go func() {
		for {
			time.Sleep(5 * time.Minute)
			SaveMetricsToDB(store)
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		SaveMetricsToDB(store)
		store.Close()
		log.Println("Metrics saved, shutting down...")
		os.Exit(0)
	}()

	if err := launchMetricsAndHealthServer(config.GetInt("metrics_port")); err != nil {
		log.Fatalf("Failed to start metrics and health server: %v", err)
	}
}

func setupLogging() {
	log.SetLevel(log.InfoLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting crypto alert bot...")
}

func handleUpdates(bot *telegram.Bot, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.Message == nil || !update.Message.IsCommand() {
			log.Debug("Received non-command update")
			continue
		}

		metrics.MessagesHandled.Inc()
		handleCommand(bot, update)
	}
}

func handleCommand(bot *telegram.Bot, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	text := bot.HandleUpdate(update)
	if text == "" {
		metrics.CommandsProcessed.Inc()
		return
	}

	err := bot.SendMessage(telegram.Message{
		ChatID:    update.Message.Chat.ID,
		Text:      text,
		MessageID: update.Message.MessageID,
	})

	if err != nil {
		log.Errorf("Failed to send message: %v", err)
	} else {
		metrics.CommandsProcessed.Inc()
	}
}

func recordCycleStats(store *database.Store, stats alert.CycleStats) {
	metrics.CyclesRun.Inc()
	metrics.AlertsSent.Add(float64(stats.Sent))
	metrics.AlertsSuppressed.Add(float64(stats.Suppressed))
	for asset, n := range stats.PerAsset {
		metrics.AlertsPerAsset.WithLabelValues(asset).Add(float64(n))
	}

	if count, err := store.CountActiveSubscriptions(); err == nil {
		metrics.ActiveSubscriptions.Set(float64(count))
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(port int) error {
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", healthCheckHandler)

	log.Infof("Launching metrics and health endpoint on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), http.DefaultServeMux)
}

func LoadMetricsFromDB(store *database.Store) {
	metrics.Mutex.Lock()
	defer metrics.Mutex.Unlock()

	commandsProcessed, _ := store.GetMetric("commands_processed")
	messagesHandled, _ := store.GetMetric("messages_handled")
	cyclesRun, _ := store.GetMetric("cycles_run")
	alertsSent, _ := store.GetMetric("alerts_sent")
	alertsSuppressed, _ := store.GetMetric("alerts_suppressed")

	metrics.CommandsProcessed.Add(commandsProcessed)
	metrics.MessagesHandled.Add(messagesHandled)
	metrics.CyclesRun.Add(cyclesRun)
	metrics.AlertsSent.Add(alertsSent)
	metrics.AlertsSuppressed.Add(alertsSuppressed)

	perAsset, _ := store.GetMetricsWithLabels("alerts_per_asset")
	for _, labelValues := range perAsset {
		for asset, value := range labelValues {
			metrics.AlertsPerAsset.WithLabelValues(asset).Add(value)
		}
	}

	log.Debug("Metrics loaded from database.")
}

func SaveMetricsToDB(store *database.Store) {
	metrics.Mutex.Lock()
	defer metrics.Mutex.Unlock()

	store.SaveMetric("commands_processed", "", "", GetMetricValue(metrics.CommandsProcessed))
	store.SaveMetric("messages_handled", "", "", GetMetricValue(metrics.MessagesHandled))
	store.SaveMetric("cycles_run", "", "", GetMetricValue(metrics.CyclesRun))
	store.SaveMetric("alerts_sent", "", "", GetMetricValue(metrics.AlertsSent))
	store.SaveMetric("alerts_suppressed", "", "", GetMetricValue(metrics.AlertsSuppressed))

	metricChan := make(chan prometheus.Metric, 1)
	go func() {
		metrics.AlertsPerAsset.Collect(metricChan)
		close(metricChan)
	}()

	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Errorf("Failed to read alerts_per_asset metric: %v", err)
			continue
		}
		var asset string
		for _, label := range metricProto.Label {
			if label.GetName() == "asset" {
				asset = label.GetValue()
			}
		}
		store.SaveMetric("alerts_per_asset", "asset", asset, metricProto.Counter.GetValue())
	}

	log.Debug("Metrics saved to database.")
}

func GetMetricValue(metric prometheus.Collector) float64 {
	var metricValue float64
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		metricValue = metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		metricValue = metricProto.Gauge.GetValue()
	}
	return metricValue
}
