package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Printf("showbridge: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
