package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

type recordingNotifier struct {
	id     string
	got    []Notification
	err    error
	closed bool
}

func (r *recordingNotifier) ID() string   { return r.id }
func (r *recordingNotifier) Type() string { return "recording" }
func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	r.got = append(r.got, n)
	return r.err
}
func (r *recordingNotifier) Close() error {
	r.closed = true
	return nil
}

func TestFanoutHonoursMinSeverity(t *testing.T) {
	all := &recordingNotifier{id: "all"}
	errorsOnly := &recordingNotifier{id: "errors"}
	f := NewFanout(
		Route{Notifier: all, MinSeverity: SeverityInfo},
		Route{Notifier: errorsOnly, MinSeverity: SeverityError},
		Route{Notifier: nil},
	)
	if f.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", f.Size())
	}

	n, err := f.Notify(context.Background(), Notification{Severity: SeveritySuccess, Message: "Caricati 3 partner"})
	if err != nil || n != 1 {
		t.Fatalf("success notify: n=%d err=%v", n, err)
	}
	n, err = f.Notify(context.Background(), Notification{Severity: SeverityError, Message: "Errore"})
	if err != nil || n != 2 {
		t.Fatalf("error notify: n=%d err=%v", n, err)
	}
	if len(all.got) != 2 || len(errorsOnly.got) != 1 {
		t.Fatalf("deliveries: all=%d errors=%d", len(all.got), len(errorsOnly.got))
	}
}

func TestFanoutJoinsErrorsAndCloses(t *testing.T) {
	bad := &recordingNotifier{id: "bad", err: errors.New("down")}
	good := &recordingNotifier{id: "good"}
	f := NewFanout(Route{Notifier: bad}, Route{Notifier: good})

	n, err := f.Notify(context.Background(), Notification{Severity: SeverityInfo})
	if n != 1 {
		t.Fatalf("expected 1 successful delivery, got %d", n)
	}
	if err == nil || !strings.Contains(err.Error(), "notifier[bad]") {
		t.Fatalf("expected joined error naming the failing notifier, got %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !bad.closed || !good.closed {
		t.Fatalf("expected all closers to be closed")
	}
}

func TestNilFanoutIsSafe(t *testing.T) {
	var f *Fanout
	if n, err := f.Notify(context.Background(), Notification{}); n != 0 || err != nil {
		t.Fatalf("nil fanout: n=%d err=%v", n, err)
	}
	if f.Size() != 0 || f.Close() != nil {
		t.Fatalf("nil fanout should be empty")
	}
}

func TestConsoleNotifierFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleNotifier("", &buf)
	n := Notification{Severity: SeverityError, Message: "Errore nel caricamento dei partner", Detail: "network down"}
	if err := c.Notify(context.Background(), n); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got := buf.String(); got != "[ERROR] Errore nel caricamento dei partner: network down\n" {
		t.Fatalf("unexpected output %q", got)
	}
	if c.ID() != TypeConsole {
		t.Fatalf("default id = %q", c.ID())
	}
}

func TestBuildAllUsesRegistry(t *testing.T) {
	rec := &recordingNotifier{id: "rec"}
	reg := NewRegistry(map[string]Builder{
		"recording": func(context.Context, NotifierConfig, Logger) (Notifier, error) { return rec, nil },
	})

	f, err := BuildAll(context.Background(), reg, []NotifierConfig{{ID: "rec", Type: "recording", MinSeverity: "warning"}}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if _, err := f.Notify(context.Background(), Notification{Severity: SeverityInfo}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(rec.got) != 0 {
		t.Fatalf("info should be filtered by warning threshold")
	}

	if _, err := BuildAll(context.Background(), reg, []NotifierConfig{{ID: "x", Type: "missing"}}, nil); err == nil {
		t.Fatalf("expected error for unregistered type")
	}
}

func TestSeverityOrdering(t *testing.T) {
	if !SeverityError.AtLeast(SeverityWarning) || SeverityInfo.AtLeast(SeveritySuccess) {
		t.Fatalf("unexpected severity ordering")
	}
	if _, ok := ParseSeverity("fatal"); ok {
		t.Fatalf("fatal should not parse")
	}
	if s, ok := ParseSeverity(" WARNING "); !ok || s != SeverityWarning {
		t.Fatalf("ParseSeverity(WARNING) = %q %v", s, ok)
	}
}
