package domain

import "time"

// ErrorSink receives failure telemetry. Record must not block on I/O.
type ErrorSink interface {
	Record(source string, err error)
}

// ErrorEvent is one recorded failure.
type ErrorEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	ErrorType string    `json:"error_type"`
	Message   string    `json:"message"`
}

// NopErrorSink drops every event.
type NopErrorSink struct{}

func (NopErrorSink) Record(string, error) {}
