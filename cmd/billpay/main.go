package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	environment "billpay/internal/env"
	"billpay/pkg/qiwi"
)

const usage = `usage: billpay <command> [flags]

commands:
  create  issue a new bill
  check   fetch a bill's current state
  reject  cancel a waiting bill
  watch   reconcile unfinished bills until interrupted
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()
	env, err := environment.Setup(ctx)
	if err != nil {
		log.Fatalf("Failed to setup environment: %v", err)
	}
	defer func() {
		for _, closer := range env.Closers {
			closer()
		}
	}()

	switch os.Args[1] {
	case "create":
		err = runCreate(ctx, env, os.Args[2:])
	case "check":
		err = runCheck(ctx, env, os.Args[2:])
	case "reject":
		err = runReject(ctx, env, os.Args[2:])
	case "watch":
		err = runWatch(env)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		env.Logger.Error("Command failed", slog.String("command", os.Args[1]), slog.Any("error", err))
		os.Exit(1)
	}
}

func runCreate(ctx context.Context, env *environment.Env, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	value := fs.String("amount", "", "bill amount, e.g. 100.50")
	currency := fs.String("currency", "RUB", "bill currency: USD, EUR or RUB")
	comment := fs.String("comment", "", "bill comment")
	lifetime := fs.Duration("lifetime", 45*time.Minute, "how long the bill stays payable")
	billID := fs.String("bill", "", "bill id (generated when empty)")
	theme := fs.String("theme", "", "theme code for the payment form")
	sources := fs.String("sources", "", "comma-joined pay sources filter, e.g. qw,card")
	fs.Parse(args)

	amount, err := qiwi.NewAmount(*value, qiwi.Currency(*currency))
	if err != nil {
		return err
	}

	params := qiwi.CreateBillParams{
		Amount:    amount,
		Remaining: *lifetime,
		Comment:   *comment,
	}
	if *theme != "" || *sources != "" {
		var filter []qiwi.PaySource
		if *sources != "" {
			for _, s := range strings.Split(*sources, ",") {
				filter = append(filter, qiwi.PaySource(s))
			}
		}
		customFields, err := qiwi.NewCustomFields(filter, *theme)
		if err != nil {
			return err
		}
		params.CustomFields = customFields
	}

	bill, err := env.Clients.Billing.Bills.Create(ctx, *billID, params)
	if err != nil {
		return err
	}
	if err := env.Services.Ledger.Track(ctx, bill); err != nil {
		return err
	}

	fmt.Printf("created %s\npay url: %s\nexpires: %s\n",
		bill, bill.PayURL(), bill.ExpirationDate().Format(time.RFC3339))
	return nil
}

func runCheck(ctx context.Context, env *environment.Env, args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	billID := fs.String("bill", "", "bill id")
	fs.Parse(args)
	if *billID == "" {
		return fmt.Errorf("bill id is required: -bill <id>")
	}

	bill, err := env.Clients.Billing.Bills.Check(ctx, *billID)
	if err != nil {
		return err
	}
	if err := env.Services.Ledger.Track(ctx, bill); err != nil {
		return err
	}

	fmt.Printf("%s\nremaining: %s\n", bill, bill.Remaining().Round(time.Second))
	return nil
}

func runReject(ctx context.Context, env *environment.Env, args []string) error {
	fs := flag.NewFlagSet("reject", flag.ExitOnError)
	billID := fs.String("bill", "", "bill id")
	fs.Parse(args)
	if *billID == "" {
		return fmt.Errorf("bill id is required: -bill <id>")
	}

	bill, err := env.Clients.Billing.Bills.Reject(ctx, *billID)
	if err != nil {
		return err
	}
	if err := env.Services.Ledger.Track(ctx, bill); err != nil {
		return err
	}

	fmt.Printf("rejected %s\n", bill)
	return nil
}

func runWatch(env *environment.Env) error {
	logger := env.Logger
	logger.Info("Starting billpay watcher")

	if env.Servers.HTTP.Observability != nil {
		go func() {
			logger.Info("Starting observability server", slog.String("addr", env.Servers.HTTP.Observability.Addr))
			if err := env.Servers.HTTP.Observability.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Observability server error", slog.Any("error", err))
			}
		}()
	}

	if err := env.Services.WorkerManager.Start(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Watcher started. Press Ctrl+C to stop.")
	<-quit

	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.Config.ShutdownDuration)
	defer cancel()

	env.Services.WorkerManager.Stop()

	if env.Servers.HTTP.Observability != nil {
		if err := env.Servers.HTTP.Observability.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			logger.Error("Observability server shutdown error", slog.Any("error", err))
		}
	}

	logger.Info("Watcher stopped")
	return nil
}
