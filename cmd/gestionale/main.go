package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gestionale-natale/crm-client/internal/app"
	"github.com/gestionale-natale/crm-client/internal/config"
	"github.com/gestionale-natale/crm-client/internal/logger"
	"github.com/spf13/pflag"
)

// errCommandFailed marks a backend failure already reported through the notifiers.
var errCommandFailed = errors.New("command failed")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errCommandFailed) {
			fmt.Fprintf(os.Stderr, "gestionale: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("gestionale starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.NewRuntime(ctx, cfg, log, stdout)
	if err != nil {
		logger.ErrorObj("failed to initialize runtime", "error", err.Error())
		return err
	}
	defer rt.Close()

	name := flags.Arg(0)
	if name == "" {
		flags.Usage()
		return fmt.Errorf("missing command")
	}

	if name == cmdHistory {
		return printHistory(rt.Console, flags, stdout)
	}

	cmd, closeFile, err := parseCommand(name, flags, rt.Resources)
	if err != nil {
		return err
	}
	defer closeFile()

	out := rt.Console.Run(ctx, cmd)
	if !out.OK() {
		return errCommandFailed
	}
	if out.Result.HasData() {
		return printJSON(stdout, out.Result.Data)
	}
	return nil
}

func printHistory(console *app.Console, flags *pflag.FlagSet, stdout io.Writer) error {
	limit, _ := flags.GetInt("limit")
	entries, err := console.History(limit)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return printJSON(stdout, data)
}

func printJSON(w io.Writer, raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		_, err = fmt.Fprintln(w, string(raw))
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
