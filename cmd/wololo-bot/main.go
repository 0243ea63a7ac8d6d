package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jopotochny/wololo-bot/internal/bot"
	"github.com/jopotochny/wololo-bot/internal/config"
	"github.com/jopotochny/wololo-bot/internal/repository"
	"github.com/jopotochny/wololo-bot/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	pingRepo := repository.NewPingRepository(db)
	correlationRepo := repository.NewCorrelationRepository(db)

	discordBot, err := bot.New(cfg.DiscordToken, userRepo, adminRepo, pingRepo, correlationRepo, &cfg)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	retentionSvc := service.NewRetentionService(correlationRepo, cfg.CorrelationTTL)
	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleInterval(cfg.SweepInterval, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := retentionSvc.Sweep(jobCtx, time.Now()); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("retention sweep: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule retention sweep: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Wololo bot started.")
	if err := discordBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
