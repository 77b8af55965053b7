package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/inversoft/pos-checkout/internal/adapter/handler"
	"github.com/inversoft/pos-checkout/internal/adapter/notify"
	"github.com/inversoft/pos-checkout/internal/adapter/payment"
	"github.com/inversoft/pos-checkout/internal/adapter/storage"
	"github.com/inversoft/pos-checkout/internal/core/service"
	"github.com/inversoft/pos-checkout/internal/port"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.toml", "path to config file")
	flag.Parse()

	viper.SetDefault("server.http_addr", ":8080")
	viper.SetDefault("mysql.dsn", "")
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("kafka.brokers", []string{})
	viper.SetDefault("kafka.topic", "pos.sales.completed")
	viper.SetDefault("checkout.processing_delay", "2s")
	viper.SetDefault("checkout.worker_count", 4)
	viper.SetDefault("checkout.queue_size", 1024)
	viper.SetDefault("checkout.persist_timeout", "5s")

	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		slog.Warn("config file not loaded, using defaults", "path", configPath, "error", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalog := storage.NewMemoryCatalog(storage.SeedProducts())
	directory := storage.NewMemoryDirectory(storage.SeedCustomers())

	// Reservation store: Redis when configured, in-process otherwise.
	var cache port.CacheRepository
	var rdb *redis.Client
	if addr := viper.GetString("redis.addr"); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("failed to connect redis", "addr", addr, "error", err)
			os.Exit(1)
		}
		cache = storage.NewRedisAdapter(rdb)
		slog.Info("connected to redis", "addr", addr)
	} else {
		cache = storage.NewMemoryCache()
	}

	// Seed reservation counters from the catalog snapshot.
	for _, p := range storage.SeedProducts() {
		if err := cache.SetStock(ctx, p.ID, p.Stock); err != nil {
			slog.Error("failed to seed stock", "product_id", p.ID, "error", err)
			os.Exit(1)
		}
	}

	// Sale persistence: MySQL when configured, in-process otherwise.
	var sales port.SaleRepository
	var db *sql.DB
	if dsn := viper.GetString("mysql.dsn"); dsn != "" {
		var err error
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			slog.Error("failed to open mysql", "error", err)
			os.Exit(1)
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			slog.Error("failed to ping mysql", "error", err)
			os.Exit(1)
		}
		sales = storage.NewMySQLAdapter(db)
		slog.Info("connected to mysql")
	} else {
		store := storage.NewMemorySaleStore()
		store.SeedInventory(storage.SeedProducts())
		sales = store
	}

	var notifier port.ReceiptNotifier
	if brokers := viper.GetStringSlice("kafka.brokers"); len(brokers) > 0 {
		kn := notify.NewKafkaNotifier(brokers, viper.GetString("kafka.topic"))
		defer kn.Close()
		notifier = kn
		slog.Info("kafka notifier enabled", "brokers", brokers)
	} else {
		notifier = notify.NewNoopNotifier()
	}

	sessions := service.NewSessionService(catalog, directory)
	checkout := service.NewCheckoutService(
		sessions,
		cache,
		payment.NewMockGateway(),
		viper.GetDuration("checkout.processing_delay"),
		viper.GetInt("checkout.queue_size"),
	)

	// Persistence worker pool.
	var wg sync.WaitGroup
	workerCount := viper.GetInt("checkout.worker_count")
	persistTimeout := viper.GetDuration("checkout.persist_timeout")
	for i := 0; i < workerCount; i++ {
		worker := service.NewReceiptWorker(checkout.ReceiptQueue(), sales, cache, notifier, persistTimeout)
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			worker.Run(id)
		}(i)
	}
	slog.Info("started workers", "count", workerCount)

	httpHandler := handler.NewHTTPHandler(sessions, checkout)
	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    viper.GetString("server.http_addr"),
		Handler: mux,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	checkout.Close()
	wg.Wait()
	slog.Info("workers stopped")

	if rdb != nil {
		rdb.Close()
	}
	if db != nil {
		db.Close()
	}
	slog.Info("connections closed")
}
