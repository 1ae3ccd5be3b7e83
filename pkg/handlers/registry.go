// Package handlers implements the message-type dispatch table (spec §4.2):
// an ordered list of handlers, the first whose CanHandle matches wins, with
// an UnknownHandler registered last to guarantee total dispatch.
package handlers

import (
	"log/slog"

	"github.com/codeready-toolchain/skypeetl/pkg/models"
)

// Handler extracts the variant-specific structured payload for one or more
// message-type tags.
type Handler interface {
	// CanHandle reports whether this handler owns the given messagetype tag.
	CanHandle(messageType string) bool
	// Extract returns the variant-specific fields to merge onto the common
	// base fields. It must never panic on malformed content — callers treat
	// a panic as a bug, not an expected failure mode.
	Extract(msg models.RawMessage) map[string]any
}

// Registry holds handlers in priority order, terminated by a catch-all.
type Registry struct {
	handlers []Handler
}

// NewRegistry builds the default registry covering every variant named in
// spec §4.2's handler table, in the order a message's type should be matched.
func NewRegistry() *Registry {
	return &Registry{handlers: []Handler{
		&TextHandler{},
		&MediaHandler{},
		&PollHandler{},
		&CallHandler{},
		&ScheduledCallHandler{},
		&LocationHandler{},
		&ContactsHandler{},
		&MediaCardHandler{},
		&PopCardHandler{},
		&TranslationHandler{},
		&ThreadActivityHandler{},
		&UnknownHandler{},
	}}
}

// Lookup returns the first handler whose CanHandle matches. Because
// UnknownHandler accepts everything, this never returns nil (handler
// totality, spec §8 property 7).
func (r *Registry) Lookup(messageType string) Handler {
	for _, h := range r.handlers {
		if h.CanHandle(messageType) {
			return h
		}
	}
	// unreachable given UnknownHandler.CanHandle always returns true.
	return &UnknownHandler{}
}

// baseFields produces the six fields every handler's output is merged onto
// (spec §4.2 "Common base fields").
func baseFields(msg models.RawMessage) map[string]any {
	return map[string]any{
		"id":           msg.ID,
		"timestamp":    msg.OriginalArrivalTime,
		"sender_id":    msg.From,
		"sender_name":  msg.From,
		"message_type": msg.MessageType,
		"is_edited":    msg.IsEdited(),
	}
}

// Dispatch extracts the merged base + variant-specific structured data for
// msg. Handler-level panics are recovered into a reduced-but-valid result
// with an extraction_error field, per spec §4.2's "errors are swallowed"
// contract and §4.4's "handlers failing for one message MUST NOT stop
// neighboring message transformation".
func Dispatch(r *Registry, msg models.RawMessage) (result map[string]any, extractionErr error) {
	h := r.Lookup(msg.MessageType)

	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("message handler panicked, emitting reduced result",
				"message_id", msg.ID, "message_type", msg.MessageType, "panic", rec)
			result = baseFields(msg)
			result["extraction_error"] = "handler panicked during extraction"
		}
	}()

	result = baseFields(msg)
	for k, v := range h.Extract(msg) {
		result[k] = v
	}
	return result, nil
}
