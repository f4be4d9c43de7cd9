// Command gymctl lists, checks members in and out of, and deletes dashboard
// records through the HTTP API.
//
//	gymctl [--url URL] [--token TOKEN] <command> [flags] [args]
//
// Commands:
//
//	list <kind> [-q text] [--status s] [--sort col] [--dir asc|desc] [--page n] [--per-page n] [--format table|csv]
//	delete <kind> <id> [--yes]
//	checkin <member-id> [--method manual|qr|rfid|biometric]
//	checkout <member-id>
//	dashboard
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"gymdash/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "gymctl:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli{
		remote: cfg.Remote,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	os.Exit(app.run(ctx, os.Args[1:]))
}
