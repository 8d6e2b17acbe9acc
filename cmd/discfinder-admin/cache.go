package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/discfinder/discfinder/internal/bootstrap"
	"github.com/discfinder/discfinder/internal/data"
	"github.com/discfinder/discfinder/internal/service"
)

// runClearHunterCache drops the cached Hunter.io account snapshot so the
// next /api/hunter/account or /api/stats call re-reads the live balance.
func runClearHunterCache(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("clear-hunter-cache", flag.ContinueOnError)
	timeout := fs.Duration("timeout", 30*time.Second, "overall command timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	redisClient, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if closeErr := redisClient.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
		}
	}()

	removed, err := data.NewRedisCacheRepo(redisClient).Delete(ctx, service.HunterAccountCacheKey)
	if err != nil {
		return fmt.Errorf("delete cache key: %w", err)
	}

	if removed {
		return writef(os.Stdout, "cleared %s\n", service.HunterAccountCacheKey)
	}
	return writef(os.Stdout, "%s was not cached\n", service.HunterAccountCacheKey)
}
