// Package simulation reconciles a chronological stream of pump events into
// the platform's canonical log. Open-ended basal segments are closed against
// their successor, degenerate boluses are filtered out, and the final log is
// returned in strict chronological order.
package simulation

import (
	"fmt"
	"sort"
	"time"

	"github.com/sherine-k/infusion/pkg/events"
)

// OrderingError reports an event whose timestamp precedes the last accepted
// event's. The simulator assumes pre-sorted input and does not attempt
// recovery; the caller must abort the session.
type OrderingError struct {
	Last time.Time
	Got  time.Time
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("simulation: event at %s arrived after %s, input must be chronological",
		e.Got.Format(time.RFC3339), e.Last.Format(time.RFC3339))
}

// Simulator ingests one event at a time, in caller-guaranteed chronological
// order, and exposes the final filtered, sorted event log. A single instance
// must be fed from one goroutine; Events may be called at any point,
// including mid-stream.
type Simulator struct {
	open     *events.Basal
	last     time.Time
	haveLast bool
	log      []events.Record
}

// New creates an empty simulator.
func New() *Simulator {
	return &Simulator{}
}

// advance enforces the ordering invariant and records t as the last accepted
// timestamp.
func (s *Simulator) advance(t time.Time) error {
	if s.haveLast && t.Before(s.last) {
		return &OrderingError{Last: s.last, Got: t}
	}
	s.last = t
	s.haveLast = true
	return nil
}

func (s *Simulator) accept(r events.Record) error {
	if err := s.advance(r.Time()); err != nil {
		return err
	}
	s.log = append(s.log, r)
	return nil
}

// Per-kind handlers. All except Basal append the record unchanged.

func (s *Simulator) Alarm(a events.Alarm) error { return s.accept(a) }

func (s *Simulator) Bolus(b events.Bolus) error { return s.accept(b) }

func (s *Simulator) ChangeDeviceTime(c events.ChangeDeviceTime) error { return s.accept(c) }

func (s *Simulator) ChangeReservoir(c events.ChangeReservoir) error { return s.accept(c) }

func (s *Simulator) Resume(r events.Resume) error { return s.accept(r) }

func (s *Simulator) Settings(st events.Settings) error { return s.accept(st) }

func (s *Simulator) SMBG(m events.SMBG) error { return s.accept(m) }

func (s *Simulator) Suspend(su events.Suspend) error { return s.accept(su) }

func (s *Simulator) Wizard(w events.Wizard) error { return s.accept(w) }

// Basal closes the currently open segment, if any, against the new event's
// timestamp, then makes the new event the open segment. The closed segment is
// appended out of arrival order relative to non-basal events already in the
// log; Events restores chronology.
func (s *Simulator) Basal(b events.Basal) error {
	if err := s.advance(b.At); err != nil {
		return err
	}
	if s.open != nil {
		closed := s.open.Close(b.At)
		b.Previous = closed.Snapshot()
		s.log = append(s.log, closed)
	}
	s.open = &b
	return nil
}

// Add dispatches r to its kind handler.
func (s *Simulator) Add(r events.Record) error {
	switch r := r.(type) {
	case events.Alarm:
		return s.Alarm(r)
	case events.Basal:
		return s.Basal(r)
	case events.Bolus:
		return s.Bolus(r)
	case events.ChangeDeviceTime:
		return s.ChangeDeviceTime(r)
	case events.ChangeReservoir:
		return s.ChangeReservoir(r)
	case events.Resume:
		return s.Resume(r)
	case events.Settings:
		return s.Settings(r)
	case events.SMBG:
		return s.SMBG(r)
	case events.Suspend:
		return s.Suspend(r)
	case events.Wizard:
		return s.Wizard(r)
	default:
		return fmt.Errorf("simulation: unhandled event kind %q", r.Kind())
	}
}

// Finalize flushes a trailing open basal segment into the log. The segment
// never saw a successor, so it stays open-ended: no duration, schedule name
// left as-is. Callers must invoke Finalize at end of stream or the last
// segment of a session is lost. Idempotent.
func (s *Simulator) Finalize() {
	if s.open == nil {
		return
	}
	s.log = append(s.log, *s.open)
	s.open = nil
}

// Events returns the canonical log: degenerate boluses (and wizards whose
// embedded bolus is degenerate) are dropped, then the remainder is stably
// sorted ascending by timestamp, preserving input order on ties. Internal
// state is never mutated; Events may be called repeatedly.
func (s *Simulator) Events() []events.Record {
	out := make([]events.Record, 0, len(s.log))
	for _, r := range s.log {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time().Before(out[j].Time())
	})
	return out
}

func keep(r events.Record) bool {
	switch r := r.(type) {
	case events.Bolus:
		return !r.Degenerate()
	case events.Wizard:
		return r.Bolus == nil || !r.Bolus.Degenerate()
	}
	return true
}
