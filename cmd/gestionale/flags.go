package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gestionale-natale/crm-client/internal/app"
	"github.com/gestionale-natale/crm-client/pkg/apiclient"
	"github.com/gestionale-natale/crm-client/pkg/resources"
	"github.com/spf13/pflag"
)

const cmdHistory = "history"

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("gestionale", pflag.ContinueOnError)

	// Config overrides, bound into viper by config.Load.
	flags.String("api-url", "", "backend base URL (env API_URL)")
	flags.String("log-level", "", "log level (env LOG_LEVEL)")
	flags.Int64("request-timeout-seconds", 0, "per request timeout, 0 disables it (env REQUEST_TIMEOUT_SECONDS)")
	flags.String("export-dir", "", "directory the GLS export is saved to (env EXPORT_DIR)")
	flags.String("export-target", "", "where exports go: dir or s3 (env EXPORT_TARGET)")
	flags.String("export-s3-bucket", "", "S3 bucket for exports (env EXPORT_S3_BUCKET)")
	flags.String("export-s3-prefix", "", "S3 key prefix for exports (env EXPORT_S3_PREFIX)")
	flags.String("export-s3-region", "", "S3 region (env EXPORT_S3_REGION)")
	flags.String("export-s3-endpoint", "", "S3 compatible endpoint, e.g. MinIO (env EXPORT_S3_ENDPOINT)")
	flags.String("resources-file", "", "resource types registry (env RESOURCES_FILE)")
	flags.String("notifiers-file", "", "notifiers registry (env NOTIFIERS_FILE)")
	flags.String("journal-type", "", "journal backend: bbolt or none (env JOURNAL_TYPE)")
	flags.String("journal-path", "", "bbolt journal path (env JOURNAL_PATH)")

	// Command arguments.
	flags.StringP("type", "t", "", "resource type, e.g. partner or clienti")
	flags.Int64("id", 0, "record id")
	flags.Int64Slice("ids", nil, "record ids for bulk-update")
	flags.Bool("include-trashed", false, "list: include trashed records")
	flags.StringP("file", "f", "", "import: Excel file to upload")
	flags.String("data", "", "save/settings-set: JSON payload, or @path to read it from a file")
	flags.String("property", "", "bulk-update: property name")
	flags.String("value", "", "bulk-update: property value, parsed as JSON when possible")
	flags.Int("limit", 20, "history: number of entries")

	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: gestionale [flags] <command>\n\ncommands: %s, %s\n\nflags:\n%s",
			strings.Join(app.Commands, ", "), cmdHistory, flags.FlagUsages())
	}
	return flags
}

// parseCommand turns the parsed flags into a console command. The returned
// func closes the uploaded file, if any.
func parseCommand(name string, flags *pflag.FlagSet, reg *resources.Registry) (app.Command, func(), error) {
	noop := func() {}
	cmd := app.Command{Name: strings.ToLower(strings.TrimSpace(name))}

	cmd.Resource, _ = flags.GetString("type")
	cmd.Resource = strings.ToLower(strings.TrimSpace(cmd.Resource))
	cmd.ID, _ = flags.GetInt64("id")
	cmd.IDs, _ = flags.GetInt64Slice("ids")
	cmd.IncludeTrashed, _ = flags.GetBool("include-trashed")
	cmd.Property, _ = flags.GetString("property")

	switch cmd.Name {
	case app.CmdList, app.CmdSave, app.CmdImport, app.CmdBulkUpdate, app.CmdTrashMove:
		res, err := lookupResource(reg, cmd.Resource)
		if err != nil {
			return cmd, noop, err
		}
		if cmd.Name == app.CmdTrashMove && !res.TrashEnabled() {
			return cmd, noop, fmt.Errorf("resource %q has no trash", res.ID)
		}
	}

	switch cmd.Name {
	case app.CmdTrashMove, app.CmdTrashRestore, app.CmdTrashDelete:
		if cmd.ID <= 0 {
			return cmd, noop, fmt.Errorf("%s requires --id", cmd.Name)
		}
	case app.CmdSave, app.CmdSettingsSet:
		raw, _ := flags.GetString("data")
		payload, err := readPayload(raw)
		if err != nil {
			return cmd, noop, err
		}
		cmd.Payload = payload
	case app.CmdBulkUpdate:
		raw, _ := flags.GetString("value")
		cmd.PropertyValue = parseValue(raw)
	case app.CmdImport:
		path, _ := flags.GetString("file")
		if strings.TrimSpace(path) == "" {
			return cmd, noop, fmt.Errorf("import requires --file")
		}
		f, err := os.Open(path)
		if err != nil {
			return cmd, noop, fmt.Errorf("open import file: %w", err)
		}
		cmd.File = apiclient.Upload{Name: filepath.Base(path), Reader: f}
		return cmd, func() { f.Close() }, nil
	}
	return cmd, noop, nil
}

func lookupResource(reg *resources.Registry, id string) (resources.Resource, error) {
	if id == "" {
		return resources.Resource{}, fmt.Errorf("--type is required (one of %s)", strings.Join(reg.IDs(), ", "))
	}
	res, ok := reg.ByID(id)
	if !ok {
		return resources.Resource{}, fmt.Errorf("unknown resource type %q (one of %s)", id, strings.Join(reg.IDs(), ", "))
	}
	return res, nil
}

// readPayload accepts inline JSON or @path.
func readPayload(raw string) (json.RawMessage, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("--data is required")
	}
	data := []byte(raw)
	if strings.HasPrefix(raw, "@") {
		b, err := os.ReadFile(strings.TrimPrefix(raw, "@"))
		if err != nil {
			return nil, fmt.Errorf("read payload file: %w", err)
		}
		data = b
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}
	return json.RawMessage(data), nil
}

// parseValue decodes JSON scalars (true, 3, "x") and falls back to the raw string.
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
