// Package events defines the typed event records read from an infusion pump's
// history log. Each record kind carries only its relevant fields plus a shared
// device-local timestamp; the timestamp is a raw clock reading from the pump,
// not corrected for timezone or drift.
package events

import "time"

// Kind identifies the category of a pump history record.
type Kind string

const (
	KindAlarm            Kind = "alarm"
	KindBasal            Kind = "basal"
	KindBolus            Kind = "bolus"
	KindChangeDeviceTime Kind = "change-device-time"
	KindChangeReservoir  Kind = "change-reservoir"
	KindResume           Kind = "resume"
	KindSettings         Kind = "settings"
	KindSMBG             Kind = "smbg"
	KindSuspend          Kind = "suspend"
	KindWizard           Kind = "wizard"
)

// Record is one event extracted from the pump history. Records are created
// once and never updated afterwards, except the one-time closing of a basal
// segment.
type Record interface {
	Kind() Kind
	Time() time.Time
}

// UnknownSchedule marks a closed basal segment whose active basal program
// could not be determined from the source stream.
const UnknownSchedule = "Unknown"

// Basal is a period of steady background insulin delivery at a fixed rate.
// A segment arrives open-ended: Duration stays nil until the next basal event
// closes it. Previous links form a strictly backward chain of closed segments.
type Basal struct {
	At           time.Time      `json:"time"`
	Rate         float64        `json:"rate"`
	Duration     *time.Duration `json:"duration,omitempty"`
	ScheduleName string         `json:"scheduleName,omitempty"`
	Previous     *Basal         `json:"previous,omitempty"`
}

func (b Basal) Kind() Kind      { return KindBasal }
func (b Basal) Time() time.Time { return b.At }

// Closed reports whether the segment has been closed against a successor.
func (b Basal) Closed() bool {
	return b.Duration != nil
}

// Close returns a frozen copy of b closed against the successor timestamp:
// the duration becomes the delta to next unless already set, and an unset
// schedule name becomes UnknownSchedule. The receiver is left untouched.
func (b Basal) Close(next time.Time) Basal {
	if b.Duration == nil {
		d := next.Sub(b.At)
		b.Duration = &d
	}
	if b.ScheduleName == "" {
		b.ScheduleName = UnknownSchedule
	}
	return b
}

// Snapshot returns a copy of b suitable for a previous-link. The copy drops
// its own Previous pointer so the chain stays strictly backward.
func (b Basal) Snapshot() *Basal {
	b.Previous = nil
	return &b
}

// Bolus is a discrete insulin dose. ExpectedNormal is set only when the
// programmed amount differs from the delivered amount, e.g. after an
// interrupted delivery.
type Bolus struct {
	At             time.Time `json:"time"`
	Normal         float64   `json:"normal"`
	ExpectedNormal *float64  `json:"expectedNormal,omitempty"`
}

func (b Bolus) Kind() Kind      { return KindBolus }
func (b Bolus) Time() time.Time { return b.At }

// Degenerate reports whether the bolus delivered nothing and was not an
// interrupted programmed dose. Degenerate boluses are dropped from the final
// log.
func (b Bolus) Degenerate() bool {
	return b.Normal == 0 && b.ExpectedNormal == nil
}

// Wizard is a bolus-calculation record, optionally referencing the bolus that
// was actually delivered from it.
type Wizard struct {
	At          time.Time `json:"time"`
	Carbs       float64   `json:"carbs"`
	Recommended float64   `json:"recommended"`
	Bolus       *Bolus    `json:"bolus,omitempty"`
}

func (w Wizard) Kind() Kind      { return KindWizard }
func (w Wizard) Time() time.Time { return w.At }

// Alarm is a pump alarm with its device-specific code.
type Alarm struct {
	At   time.Time `json:"time"`
	Code uint32    `json:"code"`
}

func (a Alarm) Kind() Kind      { return KindAlarm }
func (a Alarm) Time() time.Time { return a.At }

// ChangeDeviceTime records the pump clock being set; To is the new clock
// reading.
type ChangeDeviceTime struct {
	At time.Time `json:"time"`
	To time.Time `json:"to"`
}

func (c ChangeDeviceTime) Kind() Kind      { return KindChangeDeviceTime }
func (c ChangeDeviceTime) Time() time.Time { return c.At }

// ChangeReservoir records an insulin reservoir change.
type ChangeReservoir struct {
	At time.Time `json:"time"`
}

func (c ChangeReservoir) Kind() Kind      { return KindChangeReservoir }
func (c ChangeReservoir) Time() time.Time { return c.At }

// Resume records delivery resuming after a suspend.
type Resume struct {
	At time.Time `json:"time"`
}

func (r Resume) Kind() Kind      { return KindResume }
func (r Resume) Time() time.Time { return r.At }

// Settings records a pump settings change; the payload is kept opaque.
type Settings struct {
	At  time.Time `json:"time"`
	Raw []byte    `json:"raw,omitempty"`
}

func (s Settings) Kind() Kind      { return KindSettings }
func (s Settings) Time() time.Time { return s.At }

// SMBG is a self-monitored blood glucose reading in mg/dL.
type SMBG struct {
	At    time.Time `json:"time"`
	Value float64   `json:"value"`
}

func (m SMBG) Kind() Kind      { return KindSMBG }
func (m SMBG) Time() time.Time { return m.At }

// Suspend records delivery being suspended.
type Suspend struct {
	At time.Time `json:"time"`
}

func (s Suspend) Kind() Kind      { return KindSuspend }
func (s Suspend) Time() time.Time { return s.At }
