package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/iamvkosarev/bot-console/config"
	"github.com/iamvkosarev/bot-console/internal/app"
)

func main() {
	cfgPath := flag.String("config", "", "path to the yaml config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = app.Run(ctx, cfg); err != nil {
		log.Printf("failed to run bot console: %v", err)
		stop()
		os.Exit(1)
	}
	log.Println("Bot console stopped")
}
