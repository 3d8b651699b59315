package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/events"
	"app/internal/handler"
	"app/internal/infra/cache"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/repository"
	"app/internal/server"
	"app/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// .envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Store（postgres or memory）
	var cartRepo repository.CartRepository
	var productRepo repository.ProductRepository

	switch cfg.StoreDriver {
	case "memory":
		cartRepo = infraRepo.NewCartMemoryRepository()
		productRepo = infraRepo.NewProductMemoryRepository(seedProducts())
	default:
		gormDB, err := db.Connect(cfg)
		if err != nil {
			log.Fatalf("db connect: %v", err)
		}
		if err := gormDB.AutoMigrate(
			&model.Product{},
			&model.Cart{},
			&model.CartItem{},
		); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		cartRepo = infraRepo.NewCartGormRepository(gormDB)
		productRepo = infraRepo.NewProductGormRepository(gormDB)
	}

	// Redis（カタログのread-throughキャッシュ）
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		productRepo = cache.NewProductCacheRepository(rdb, productRepo)
	}

	// Kafka producer（カートのライフサイクルイベント）
	var publisher events.Publisher = events.NopPublisher{}
	var kafkaPub *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ServiceName, 1024)
		kafkaPub.Start(context.Background())
		publisher = kafkaPub
	}

	// Usecase生成
	pricing := usecase.NewPricingEngine(productRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, pricing, publisher)

	// Handler生成
	cartH := handler.NewCartHandler(cartUC)

	e := server.New(15 * time.Second)
	cartH.RegisterRoutes(e)

	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	// graceful shutdown
	go func() {
		if err := server.Start(e, addr); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = e.Shutdown(shutdownCtx)

	if kafkaPub != nil {
		kafkaPub.Close() // inboxを閉じてflushさせる
		kafkaPub.WaitClosed()
	}
}

// memoryモード用のカタログ固定データ
func seedProducts() []model.Product {
	return []model.Product{
		{ID: 1, Title: "Essence Mascara Lash Princess", Price: 9.99, DiscountPercentage: 7.17, Thumbnail: "https://cdn.example.com/products/1/thumbnail.jpg"},
		{ID: 98, Title: "Rolex Submariner Watch", Price: 13999.99, DiscountPercentage: 0.82, Thumbnail: "https://cdn.example.com/products/98/thumbnail.jpg"},
		{ID: 144, Title: "Cricket Helmet", Price: 44.99, DiscountPercentage: 10.75, Thumbnail: "https://cdn.example.com/products/144/thumbnail.jpg"},
		{ID: 168, Title: "Charger SXT RWD", Price: 32999.99, DiscountPercentage: 2.7, Thumbnail: "https://cdn.example.com/products/168/thumbnail.jpg"},
	}
}
