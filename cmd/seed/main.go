package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/farmconnect-backend/internal/bootstrap"
	"github.com/angelmondragon/farmconnect-backend/pkg/config"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"github.com/angelmondragon/farmconnect-backend/pkg/redis"
	"github.com/angelmondragon/farmconnect-backend/pkg/security"
	"github.com/angelmondragon/farmconnect-backend/pkg/store"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	driver := flag.String("driver", "", "override FARMCONNECT_STORE_DRIVER (redis|sql|file|memory)")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)
	if *driver != "" {
		cfg.Store.Driver = *driver
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.Store.Driver})

	var redisClient *redis.Client
	if strings.EqualFold(cfg.Store.Driver, config.StoreDriverRedis) {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		defer redisClient.Close()
	}

	st, err := bootstrap.OpenStore(ctx, cfg, logg, redisClient)
	requireResource(ctx, logg, "store", err)
	defer st.Close()

	hasher := security.NewHasher(cfg.Password)
	seeded, err := store.Seed(ctx, st.Store, hasher.Hash, time.Now())
	requireResource(ctx, logg, "seed", err)
	if !seeded {
		fmt.Println("store already has users; nothing seeded")
		return
	}
	fmt.Printf("seeded sample marketplace; demo accounts use password %q\n", store.SamplePassword)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
