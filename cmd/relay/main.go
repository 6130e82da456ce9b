package main

import (
	"fmt"
	"log"
	"time"

	"github.com/apache/rocketmq-client-go/v2/consumer"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"gpt-relay/config"
	"gpt-relay/infra/database"
	"gpt-relay/infra/queue"
	"gpt-relay/infra/storage"
	"gpt-relay/internal/chat"
	"gpt-relay/internal/domain"
	"gpt-relay/internal/handler"
	"gpt-relay/internal/provider"
	"gpt-relay/internal/store"
	"gpt-relay/pkg/registry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	serviceName := cfg.ServerName
	servicePort := cfg.Port

	localIP, err := registry.GetLocalIP()
	if err != nil {
		log.Fatalf("failed to resolve local IP: %v", err)
	}
	consulCfg := &registry.ConsulConfig{
		Address:    cfg.Consul.Address,
		Scheme:     cfg.Consul.Scheme,
		Datacenter: cfg.Consul.Datacenter,
	}
	serviceCfg := &registry.ServiceConfig{
		ID:      registry.GenerateServiceID(serviceName, servicePort),
		Name:    serviceName,
		Tags:    []string{serviceName, "api", "v1"},
		Address: localIP,
		Port:    servicePort,
		HealthCheck: &registry.HealthCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", localIP, servicePort),
			Interval:                       10 * time.Second,
			Timeout:                        3 * time.Second,
			DeregisterCriticalServiceAfter: 1 * time.Minute,
		},
	}
	serviceManager, err := registry.NewServiceManager(consulCfg, serviceCfg)
	if err != nil {
		log.Fatalf("failed to init consul client: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Redis.Address, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.Database,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		MaxRetries:   cfg.Redis.MaxRetries,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})

	httpClient := provider.NewHTTPClient(cfg.Chat.HTTPTimeout)
	providers, err := provider.Defaults(httpClient)
	if err != nil {
		log.Fatalf("failed to build provider registry: %v", err)
	}

	var repo domain.AccountRepository
	redisRepo, err := store.NewRedisRepository(redisClient, providers.Names())
	if err != nil {
		log.Printf("redis unavailable, falling back to in-memory store: %v", err)
		repo = store.NewMemoryRepository(providers.Names())
	} else {
		repo = redisRepo
	}

	opts := chat.Options{
		ProviderTimeout: cfg.Chat.ProviderTimeout,
		ModePrompt:      cfg.Chat.ModePrompt,
	}

	// The archive pipeline only runs when name servers are configured.
	if len(cfg.RocketMQ.NameServers) > 0 {
		producer, err := queue.NewProducer(cfg.RocketMQ.NameServers, cfg.RocketMQ.MaxRetries)
		if err != nil {
			log.Fatalf("failed to start mq producer: %v", err)
		}
		defer producer.Stop()
		opts.Publisher = queue.NewTurnArchiver(producer, cfg.RocketMQ.Topics.TurnArchive)

		db, err := database.NewPostgresDB(cfg.Postgres)
		if err != nil {
			log.Fatalf("failed to open postgres: %v", err)
		}
		defer db.Close()
		if err := db.CreateTables(&storage.Turn{}); err != nil {
			log.Fatalf("failed to migrate archive tables: %v", err)
		}

		archiveConsumer, err := queue.NewConsumer(cfg.RocketMQ.NameServers, cfg.RocketMQ.ConsumerGroup, consumer.Clustering)
		if err != nil {
			log.Fatalf("failed to create mq consumer: %v", err)
		}
		defer archiveConsumer.Stop()
		if err := queue.StartArchiveConsumer(archiveConsumer, cfg.RocketMQ.Topics.TurnArchive, storage.NewTurnRepository(db)); err != nil {
			log.Fatalf("failed to start archive consumer: %v", err)
		}
	}

	orchestrator := chat.NewOrchestrator(repo, providers, opts)
	tts := provider.NewBrian(httpClient)

	r := gin.Default()
	r.SetTrustedProxies([]string{
		"127.0.0.1/32",
		"192.168.31.0/24",
		"172.20.0.0/16",
	})
	r.Use(handler.RateLimit(redisClient, cfg.Redis.RateLimitQPS))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"service":   serviceName,
			"timestamp": time.Now(),
		})
	})

	handler.NewChatHandler(orchestrator, tts).RegisterRoutes(r)

	serviceManager.Start()
	log.Printf("relay service listening on %d", servicePort)
	log.Fatal(r.Run(fmt.Sprintf(":%d", servicePort)))
}
