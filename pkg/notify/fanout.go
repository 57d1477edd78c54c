package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Route pairs a notifier with the minimum severity it receives.
type Route struct {
	Notifier    Notifier
	MinSeverity Severity
}

// Fanout dispatches notifications to all configured notifiers.
type Fanout struct {
	routes []Route
}

// NewFanout builds a dispatcher that fans out notifications across routes.
func NewFanout(routes ...Route) *Fanout {
	cp := make([]Route, 0, len(routes))
	for _, r := range routes {
		if r.Notifier == nil {
			continue
		}
		cp = append(cp, r)
	}
	return &Fanout{routes: cp}
}

// Notify forwards n to every notifier whose threshold it meets.
// It returns the number of notifiers that successfully handled it.
func (f *Fanout) Notify(ctx context.Context, n Notification) (int, error) {
	if f == nil || len(f.routes) == 0 {
		return 0, nil
	}

	var errs []error
	successful := 0
	for _, r := range f.routes {
		if !n.Severity.AtLeast(r.MinSeverity) {
			continue
		}
		if err := r.Notifier.Notify(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s notifier[%s]: %w", r.Notifier.Type(), r.Notifier.ID(), err))
		} else {
			successful++
		}
	}
	return successful, errors.Join(errs...)
}

// Size returns the number of active notifiers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.routes)
}

// Close releases notifiers holding connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	return closeAll(f.routes)
}

func closeAll(routes []Route) error {
	var errs []error
	for _, r := range routes {
		if c, ok := r.Notifier.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
