package apiclient

import (
	"encoding/json"
	"errors"
)

// Result is the envelope every client operation returns.
//
// Read and trash paths report failures in Error, the Excel import and export
// paths in Message; both keys are kept so payloads stay wire compatible with
// the backend. Use Failure to read either one.
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Failure returns the failure text regardless of which key carried it.
func (r Result) Failure() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Message
}

// HasData reports whether the envelope carries a data payload.
func (r Result) HasData() bool {
	return len(r.Data) > 0 && string(r.Data) != "null"
}

// DecodeData unmarshals the data payload into v.
func (r Result) DecodeData(v any) error {
	if !r.HasData() {
		return errors.New("result has no data")
	}
	return json.Unmarshal(r.Data, v)
}

// failureKey selects which envelope field carries a failure message.
type failureKey int

const (
	errorKey failureKey = iota
	messageKey
)

func (k failureKey) String() string {
	if k == messageKey {
		return "message"
	}
	return "error"
}

func (k failureKey) other() failureKey {
	if k == messageKey {
		return errorKey
	}
	return messageKey
}

func (k failureKey) envelope(msg string) Result {
	if k == messageKey {
		return Result{Success: false, Message: msg}
	}
	return Result{Success: false, Error: msg}
}
