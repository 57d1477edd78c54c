package notify

import (
	"strings"
	"time"
)

// Severity orders notifications; it matches the snackbar levels of the web UI.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func (s Severity) rank() int {
	switch s {
	case SeveritySuccess:
		return 1
	case SeverityWarning:
		return 2
	case SeverityError:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether s is as severe as min.
func (s Severity) AtLeast(min Severity) bool { return s.rank() >= min.rank() }

// ParseSeverity maps a config string onto a Severity, defaulting to info.
func ParseSeverity(raw string) (Severity, bool) {
	switch s := Severity(strings.ToLower(strings.TrimSpace(raw))); s {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
		return s, true
	case "":
		return SeverityInfo, true
	default:
		return SeverityInfo, false
	}
}

// Notification is the payload delivered to every sink.
type Notification struct {
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Operation string    `json:"operation"`
	Resource  string    `json:"resource,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}

// NewNotification stamps a notification with the current time.
func NewNotification(sev Severity, operation, resource, message string) Notification {
	return Notification{
		Severity:  sev,
		Message:   message,
		Operation: operation,
		Resource:  resource,
		At:        time.Now().UTC(),
	}
}
