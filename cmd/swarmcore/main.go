package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"swarmcore/config"
	"swarmcore/engine"
	"swarmcore/messaging"
	"swarmcore/statecache"
	"swarmcore/store"
	"swarmcore/watchdog"
	"swarmcore/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "swarmcore.yaml", "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Println("swarmcore", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	log.Printf("swarmcore: database open (%s)", db.Driver())

	// Redis state mirror
	var cache statecache.Cache
	if cfg.Redis.Address != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("swarmcore: redis not available (%v), running without cache", err)
			redisClient.Close()
		} else {
			log.Printf("swarmcore: redis connected (%s)", cfg.Redis.Address)
			cache = statecache.NewRedisStore(redisClient)
			defer redisClient.Close()
		}
		cancel()
	}

	// Messaging client
	var msgClient *messaging.Client
	if cfg.Messaging.Backend != "" {
		msgClient = messaging.NewClient(&cfg.Messaging)
		if err := msgClient.Connect(); err != nil {
			log.Printf("swarmcore: messaging connect failed (%v)", err)
		} else {
			log.Printf("swarmcore: messaging connected (%s)", msgClient.Backend())
		}
		defer msgClient.Close()
	}

	// Engine
	engCfg := engine.Config{
		AppConfig: cfg,
		DB:        db,
		Cache:     cache,
	}
	if msgClient != nil {
		engCfg.MsgClient = msgClient
	}
	eng, err := engine.New(engCfg)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}
	if err := eng.Start(); err != nil {
		log.Fatalf("engine start: %v", err)
	}
	defer eng.Stop()

	if msgClient != nil {
		// Protocol ingestor (inbound from controllers)
		handler := messaging.NewSwarmHandler(eng, db, cfg.Messaging.StationID, cfg.Messaging.NotifyTopic)
		consumer := messaging.NewConsumer(msgClient, cfg.Messaging.CommandsTopic, handler)
		if err := consumer.Start(); err != nil {
			log.Printf("swarmcore: protocol ingestor subscribe failed: %v", err)
		} else {
			log.Printf("swarmcore: protocol ingestor listening on %s", cfg.Messaging.CommandsTopic)
		}

		// Outbox drainer (notifications and replies)
		drainer := messaging.NewOutboxDrainer(db, msgClient, cfg.Messaging.OutboxDrainInterval)
		drainer.Start()
		defer drainer.Stop()
	}

	// Tick source
	wd := watchdog.New(eng, cfg.Swarm.TickInterval, cfg.Swarm.MaxCommandWaitTicks)
	wd.Start()
	defer wd.Stop()

	// Web server
	handler, stopWeb := www.NewRouter(eng)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		log.Printf("swarmcore: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server: %v", err)
		}
	}()

	log.Printf("swarmcore: ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigCh {
		if sig != syscall.SIGHUP {
			break
		}
		reloadMessaging(*configPath, msgClient)
	}

	log.Printf("swarmcore: shutting down...")
	stopWeb()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Printf("swarmcore: stopped")
}

// reloadMessaging re-reads the messaging section of the config file and
// reconnects the client. Other sections need a restart.
func reloadMessaging(path string, msgClient *messaging.Client) {
	if msgClient == nil {
		log.Printf("swarmcore: SIGHUP ignored, messaging disabled")
		return
	}
	fresh, err := config.Load(path)
	if err != nil {
		log.Printf("swarmcore: reload config: %v", err)
		return
	}
	if err := msgClient.Reconfigure(&fresh.Messaging); err != nil {
		log.Printf("swarmcore: messaging reconfigure: %v", err)
		return
	}
	log.Printf("swarmcore: messaging reconfigured (%s)", msgClient.Backend())
}
