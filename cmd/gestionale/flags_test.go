package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gestionale-natale/crm-client/internal/app"
	"github.com/gestionale-natale/crm-client/pkg/resources"
)

func parse(t *testing.T, args ...string) (app.Command, func(), error) {
	t.Helper()
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return parseCommand(flags.Arg(0), flags, resources.Default())
}

func TestParseListCommand(t *testing.T) {
	cmd, done, err := parse(t, "list", "--type", "Partner", "--include-trashed")
	if err != nil {
		t.Fatalf("parseCommand: %v", err)
	}
	defer done()
	if cmd.Name != app.CmdList || cmd.Resource != "partner" || !cmd.IncludeTrashed {
		t.Fatalf("unexpected command %+v", cmd)
	}
}

func TestParseRejectsUnknownResource(t *testing.T) {
	_, _, err := parse(t, "list", "--type", "fornitori")
	if err == nil || !strings.Contains(err.Error(), "partner, clienti") {
		t.Fatalf("expected unknown resource error, got %v", err)
	}
	if _, _, err := parse(t, "trash-move", "--type", "partner"); err == nil {
		t.Fatalf("expected missing --id error")
	}
}

func TestParseBulkUpdateValue(t *testing.T) {
	cmd, _, err := parse(t, "bulk-update", "-t", "clienti", "--ids", "1,2", "--property", "gls", "--value", "true")
	if err != nil {
		t.Fatalf("parseCommand: %v", err)
	}
	if len(cmd.IDs) != 2 || cmd.PropertyValue != true {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if v := parseValue("Udine"); v != "Udine" {
		t.Fatalf("parseValue fallback = %#v", v)
	}
}

func TestParseSettingsPayloadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"annoCorrente":2024}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cmd, _, err := parse(t, "settings-set", "--data", "@"+path)
	if err != nil {
		t.Fatalf("parseCommand: %v", err)
	}
	if string(cmd.Payload) != `{"annoCorrente":2024}` {
		t.Fatalf("payload = %s", cmd.Payload)
	}
	if _, _, err := parse(t, "settings-set", "--data", "{nope"); err == nil {
		t.Fatalf("expected invalid JSON error")
	}
}

func TestParseImportOpensFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partner.xlsx")
	if err := os.WriteFile(path, []byte("xlsx"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cmd, done, err := parse(t, "import", "-t", "partner", "-f", path)
	if err != nil {
		t.Fatalf("parseCommand: %v", err)
	}
	defer done()
	if cmd.File.Name != "partner.xlsx" || cmd.File.Reader == nil {
		t.Fatalf("unexpected upload %+v", cmd.File)
	}
}
