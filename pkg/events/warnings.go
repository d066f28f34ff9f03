// Package events defines compatibility-warning event types and the sink
// interfaces the dispatcher emits them through.
package events

import (
	"fmt"
	"log/slog"
)

const logPrefix = "events:warnings"

// Warning kinds.
const (
	KindIntroduced = "introduced"
	KindDeprecated = "deprecated"
)

// CompatibilityWarning is emitted when an endpoint is used outside the
// version range the caller declared. Warnings never block a call.
type CompatibilityWarning struct {
	Kind      string `json:"kind"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Threshold string `json:"threshold"`
	Expected  string `json:"expected"`
}

func (w *CompatibilityWarning) String() string {
	switch w.Kind {
	case KindDeprecated:
		return fmt.Sprintf("%s %s is deprecated since %s (expected API version %s)",
			w.Method, w.Path, w.Threshold, w.Expected)
	default:
		return fmt.Sprintf("%s %s was introduced in %s (expected API version %s)",
			w.Method, w.Path, w.Threshold, w.Expected)
	}
}

// WarningSink receives compatibility warnings.
type WarningSink interface {
	Emit(w *CompatibilityWarning)
}

// NoOpSink is a WarningSink that discards warnings.
type NoOpSink struct{}

// Emit is a no-op.
func (s *NoOpSink) Emit(_ *CompatibilityWarning) {}

// CallbackSink is a WarningSink that calls a callback function (for testing).
type CallbackSink struct {
	callback func(w *CompatibilityWarning)
}

// NewCallbackSink creates a new CallbackSink.
func NewCallbackSink(cb func(w *CompatibilityWarning)) *CallbackSink {
	return &CallbackSink{callback: cb}
}

// Emit calls the callback.
func (s *CallbackSink) Emit(w *CompatibilityWarning) {
	s.callback(w)
}

// SlogSink is a WarningSink that logs warnings through log/slog. It is the
// dispatcher's default sink.
type SlogSink struct{}

// Emit logs the warning at warn level.
func (s *SlogSink) Emit(w *CompatibilityWarning) {
	slog.Warn(fmt.Sprintf("%s - %s", logPrefix, w.String()))
}
