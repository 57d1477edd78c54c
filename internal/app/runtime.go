package app

import (
	"context"
	"fmt"
	"io"

	"github.com/gestionale-natale/crm-client/internal/config"
	"github.com/gestionale-natale/crm-client/internal/export"
	"github.com/gestionale-natale/crm-client/internal/logger"
	"github.com/gestionale-natale/crm-client/internal/storage"
	"github.com/gestionale-natale/crm-client/pkg/apiclient"
	"github.com/gestionale-natale/crm-client/pkg/httpclient"
	"github.com/gestionale-natale/crm-client/pkg/notify"
	"github.com/gestionale-natale/crm-client/pkg/resources"
)

// Runtime bundles everything a CLI invocation needs.
type Runtime struct {
	Console   *Console
	Resources *resources.Registry
	fanout    *notify.Fanout
	log       logger.Logger
}

// NewRuntime builds the client, registries, notifiers and journal from cfg.
// Notifications go to stdout unless cfg.NotifiersFile declares other sinks.
func NewRuntime(ctx context.Context, cfg *config.Config, log logger.Logger, stdout io.Writer) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	resReg := resources.Default()
	if cfg.ResourcesFile != "" {
		reg, err := resources.LoadRegistry(cfg.ResourcesFile)
		if err != nil {
			return nil, fmt.Errorf("load resources registry: %w", err)
		}
		resReg = reg
	}
	log.InfoObj("resources registry loaded", "resources_meta", map[string]any{
		"count": len(resReg.All()),
		"ids":   resReg.IDs(),
	})

	fanout, err := buildNotifiers(ctx, cfg, log, stdout)
	if err != nil {
		return nil, err
	}

	storeOpts := storage.Options{
		EntryTTL:        cfg.JournalTTL,
		CleanupInterval: cfg.JournalCleanupInterval,
	}
	store, err := storage.NewStore(cfg.JournalType, cfg.JournalPath, storeOpts)
	if err != nil {
		fanout.Close()
		return nil, fmt.Errorf("init journal: %w", err)
	}
	log.InfoObj("journal initialized", "journal_config", map[string]any{
		"type":                     cfg.JournalType,
		"path":                     cfg.JournalPath,
		"entry_ttl_seconds":        int(cfg.JournalTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.JournalCleanupInterval.Seconds()),
	})

	saver, err := export.NewSaver(ctx, cfg, log)
	if err != nil {
		store.Close()
		fanout.Close()
		return nil, fmt.Errorf("init export target: %w", err)
	}

	client := apiclient.NewHTTP(
		httpclient.Options{BaseURL: cfg.APIURL, Timeout: cfg.RequestTimeout},
		apiclient.WithLogger(log),
		apiclient.WithFileSaver(saver),
	)

	return &Runtime{
		Console:   NewConsole(client, store, fanout, log),
		Resources: resReg,
		fanout:    fanout,
		log:       log,
	}, nil
}

func buildNotifiers(ctx context.Context, cfg *config.Config, log logger.Logger, stdout io.Writer) (*notify.Fanout, error) {
	if cfg.NotifiersFile == "" {
		fanout := notify.NewFanout(notify.Route{Notifier: notify.NewConsoleNotifier("", stdout)})
		log.InfoObj("notifiers defaulted to console", "notifiers_meta", map[string]any{
			"active": fanout.Size(),
		})
		return fanout, nil
	}

	reg, err := notify.LoadRegistry(cfg.NotifiersFile)
	if err != nil {
		return nil, fmt.Errorf("load notifiers registry: %w", err)
	}
	enabled := reg.Enabled()
	fanout, err := notify.BuildAll(ctx, notify.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build notifiers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, n := range enabled {
		summaries = append(summaries, map[string]string{
			"id":           n.ID,
			"type":         n.Type,
			"min_severity": string(n.Threshold()),
		})
	}
	log.InfoObj("notifiers registry loaded", "notifiers_meta", map[string]any{
		"configured": len(reg.All()),
		"active":     fanout.Size(),
		"notifiers":  summaries,
	})
	return fanout, nil
}

// Close releases the journal and the notifier connections.
func (r *Runtime) Close() {
	if r == nil {
		return
	}
	if err := r.Console.Close(); err != nil {
		r.log.ErrorObj("journal close failed", "error", err.Error())
	}
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("notifiers close failed", "error", err.Error())
	}
}
