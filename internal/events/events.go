// Package events carries leveled progress records from the engine to whatever
// sink the caller plugs in (zap, a job log, a display loop).
package events

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the severity of an event.
type Level string

// Constants for event levels.
const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event is a structured progress record.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   Level          `json:"level"`
	Company string         `json:"company,omitempty"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Sink receives events. Implementations must not block for long.
type Sink func(Event)

// Discard drops every event.
func Discard(Event) {}

// Emitter stamps events with a time and a company before handing them to a sink.
type Emitter struct {
	sink    Sink
	company string
	now     func() time.Time
}

// NewEmitter wraps a sink; a nil sink discards.
func NewEmitter(sink Sink) *Emitter {
	if sink == nil {
		sink = Discard
	}
	return &Emitter{sink: sink, now: time.Now}
}

// For returns an emitter bound to a company.
func (e *Emitter) For(company string) *Emitter {
	return &Emitter{sink: e.sink, company: company, now: e.now}
}

// Sink exposes the underlying sink.
func (e *Emitter) Sink() Sink {
	return e.sink
}

func (e *Emitter) emit(level Level, msg string, fields map[string]any) {
	e.sink(Event{Time: e.now(), Level: level, Company: e.company, Message: msg, Fields: fields})
}

// Debug emits a debug event.
func (e *Emitter) Debug(msg string, fields map[string]any) { e.emit(LevelDebug, msg, fields) }

// Info emits an info event.
func (e *Emitter) Info(msg string, fields map[string]any) { e.emit(LevelInfo, msg, fields) }

// Warn emits a warning event.
func (e *Emitter) Warn(msg string, fields map[string]any) { e.emit(LevelWarn, msg, fields) }

// Error emits an error event.
func (e *Emitter) Error(msg string, fields map[string]any) { e.emit(LevelError, msg, fields) }

// Tee fans an event out to several sinks, in order.
func Tee(sinks ...Sink) Sink {
	return func(ev Event) {
		for _, s := range sinks {
			if s != nil {
				s(ev)
			}
		}
	}
}

// ZapSink writes events to a zap logger.
func ZapSink(logger *zap.Logger) Sink {
	if logger == nil {
		return Discard
	}
	return func(ev Event) {
		fields := make([]zap.Field, 0, len(ev.Fields)+1)
		if ev.Company != "" {
			fields = append(fields, zap.String("company", ev.Company))
		}
		for k, v := range ev.Fields {
			fields = append(fields, zap.Any(k, v))
		}
		if ce := logger.Check(zapLevel(ev.Level), ev.Message); ce != nil {
			ce.Write(fields...)
		}
	}
}

func zapLevel(l Level) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Recorder keeps every event it receives. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Sink returns the recording sink.
func (r *Recorder) Sink() Sink {
	return func(ev Event) {
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
	}
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
