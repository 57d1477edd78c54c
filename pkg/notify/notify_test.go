package notify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	path := writeFile(t, "notifiers.yaml", `
notifiers:
  - id: terminal
    type: console
  - id: ops-queue
    type: SQS
    min_severity: Error
    sqs:
      uri: " https://sqs.eu-west-1.amazonaws.com/1/ops "
      region: eu-west-1
      access_key_id: AKIA
      secret_access_key: secret
  - id: hook
    type: http
    enabled: false
    http:
      url: https://hooks.example.com
      headers:
        X-Token: abc
        " ": dropped
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(reg.All()) != 3 {
		t.Fatalf("expected 3 notifiers, got %d", len(reg.All()))
	}
	if len(reg.Enabled()) != 2 {
		t.Fatalf("expected 2 enabled notifiers, got %d", len(reg.Enabled()))
	}

	q, ok := reg.ByID("ops-queue")
	if !ok {
		t.Fatalf("ops-queue not found")
	}
	if q.Type != TypeSQS || q.Threshold() != SeverityError {
		t.Fatalf("unexpected sanitized config: %+v", q)
	}
	if q.SQS.QueueURL != "https://sqs.eu-west-1.amazonaws.com/1/ops" || q.SQS.AccessKeyID != "AKIA" {
		t.Fatalf("unexpected sqs config: %+v", q.SQS)
	}

	hook, _ := reg.ByID("hook")
	if hook.HTTP.Method != "POST" || hook.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("http defaults not applied: %+v", hook.HTTP)
	}
	if len(hook.HTTP.Headers) != 1 {
		t.Fatalf("expected blank header to be dropped: %+v", hook.HTTP.Headers)
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeFile(t, "notifiers.json", `{"notifiers":[{"id":"gcp","type":"pubsub","pubsub":{"project_id":"p","topic":"t"}}]}`)
	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if cfg, ok := reg.ByID("gcp"); !ok || cfg.PubSub.Topic != "t" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadRegistryRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"unknown type":     "notifiers:\n  - id: x\n    type: carrier-pigeon\n",
		"bad severity":     "notifiers:\n  - id: x\n    type: console\n    min_severity: fatal\n",
		"missing sqs uri":  "notifiers:\n  - id: x\n    type: sqs\n    sqs:\n      region: eu-west-1\n",
		"duplicate id":     "notifiers:\n  - id: x\n    type: console\n  - id: x\n    type: console\n",
		"missing http url": "notifiers:\n  - id: x\n    type: http\n    http: {}\n",
		"empty":            "notifiers: []\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "notifiers.yaml", body)
			if _, err := LoadRegistry(path); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadRegistryEmptyPath(t *testing.T) {
	_, err := LoadRegistry("  ")
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty path error, got %v", err)
	}
}
