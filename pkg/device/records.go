// Package device decodes raw pump history pages into typed event records and
// locates a connected pump.
//
// A history page is a concatenation of fixed-layout records. Every record
// starts with a 1-byte opcode and a 4-byte timestamp counted in seconds since
// the pump epoch (2000-01-01, device-local clock). Insulin amounts and rates
// are stored in milliunits.
package device

import (
	"fmt"
	"strings"
	"time"

	"github.com/sherine-k/infusion/pkg/codec"
	"github.com/sherine-k/infusion/pkg/events"
)

// History record opcodes.
const (
	opAlarm            = 0x01
	opBasalRate        = 0x02
	opBolus            = 0x03
	opWizard           = 0x04
	opSMBG             = 0x05
	opSuspend          = 0x06
	opResume           = 0x07
	opChangeReservoir  = 0x08
	opChangeDeviceTime = 0x09
	opSettings         = 0x0a
)

// settingsPayloadLen is the opaque settings blob trailing a settings record.
const settingsPayloadLen = 8

// scheduleNameLen is the NUL-padded ASCII schedule name trailing a basal-rate
// record.
const scheduleNameLen = 8

var (
	layoutHeader    = codec.MustLayout("bi")      // opcode, seconds
	layoutAlarm     = codec.MustLayout("bis")     // opcode, seconds, code
	layoutBasalRate = codec.MustLayout("bis")     // opcode, seconds, rate; schedule name follows
	layoutBolus     = codec.MustLayout("biss")    // opcode, seconds, delivered, programmed
	layoutWizard    = codec.MustLayout("bissbss") // opcode, seconds, carbs, recommended, has-bolus, delivered, programmed
	layoutSMBG      = codec.MustLayout("bis")     // opcode, seconds, mg/dL
	layoutClock     = codec.MustLayout("bii")     // opcode, seconds, new seconds
)

var pumpEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

func recordTime(seconds uint32) time.Time {
	return pumpEpoch.Add(time.Duration(seconds) * time.Second)
}

// milliunits converts a raw insulin field to units.
func milliunits(v uint32) float64 {
	return float64(v) / 1000
}

// ParsePage decodes every record in page, in page order. An opcode outside the
// known set means the read cursor is lost, so parsing stops with an error.
func ParsePage(page []byte) ([]events.Record, error) {
	var recs []events.Record
	off := 0
	for off < len(page) {
		rec, n, err := parseRecord(page, off)
		if err != nil {
			return nil, fmt.Errorf("device: record at offset %d: %w", off, err)
		}
		recs = append(recs, rec)
		off += n
	}
	return recs, nil
}

func parseRecord(page []byte, off int) (events.Record, int, error) {
	switch page[off] {
	case opAlarm:
		f, n, err := layoutAlarm.Decode(page, off, []string{"op", "seconds", "code"})
		if err != nil {
			return nil, 0, err
		}
		return events.Alarm{At: recordTime(f["seconds"]), Code: f["code"]}, n, nil

	case opBasalRate:
		f, n, err := layoutBasalRate.Decode(page, off, []string{"op", "seconds", "rate"})
		if err != nil {
			return nil, 0, err
		}
		if off+n+scheduleNameLen > len(page) {
			return nil, 0, fmt.Errorf("schedule name truncated")
		}
		b := events.Basal{
			At:           recordTime(f["seconds"]),
			Rate:         milliunits(f["rate"]),
			ScheduleName: strings.TrimRight(codec.ExtractString(page, off+n, scheduleNameLen), "\x00"),
		}
		return b, n + scheduleNameLen, nil

	case opBolus:
		f, n, err := layoutBolus.Decode(page, off, []string{"op", "seconds", "delivered", "programmed"})
		if err != nil {
			return nil, 0, err
		}
		return bolusFromFields(f), n, nil

	case opWizard:
		f, n, err := layoutWizard.Decode(page, off, []string{"op", "seconds", "carbs", "recommended", "hasBolus", "delivered", "programmed"})
		if err != nil {
			return nil, 0, err
		}
		w := events.Wizard{
			At:          recordTime(f["seconds"]),
			Carbs:       float64(f["carbs"]),
			Recommended: milliunits(f["recommended"]),
		}
		if f["hasBolus"] != 0 {
			b := bolusFromFields(f)
			w.Bolus = &b
		}
		return w, n, nil

	case opSMBG:
		f, n, err := layoutSMBG.Decode(page, off, []string{"op", "seconds", "value"})
		if err != nil {
			return nil, 0, err
		}
		return events.SMBG{At: recordTime(f["seconds"]), Value: float64(f["value"])}, n, nil

	case opSuspend:
		f, n, err := layoutHeader.Decode(page, off, []string{"op", "seconds"})
		if err != nil {
			return nil, 0, err
		}
		return events.Suspend{At: recordTime(f["seconds"])}, n, nil

	case opResume:
		f, n, err := layoutHeader.Decode(page, off, []string{"op", "seconds"})
		if err != nil {
			return nil, 0, err
		}
		return events.Resume{At: recordTime(f["seconds"])}, n, nil

	case opChangeReservoir:
		f, n, err := layoutHeader.Decode(page, off, []string{"op", "seconds"})
		if err != nil {
			return nil, 0, err
		}
		return events.ChangeReservoir{At: recordTime(f["seconds"])}, n, nil

	case opChangeDeviceTime:
		f, n, err := layoutClock.Decode(page, off, []string{"op", "seconds", "to"})
		if err != nil {
			return nil, 0, err
		}
		return events.ChangeDeviceTime{At: recordTime(f["seconds"]), To: recordTime(f["to"])}, n, nil

	case opSettings:
		f, n, err := layoutHeader.Decode(page, off, []string{"op", "seconds"})
		if err != nil {
			return nil, 0, err
		}
		if off+n+settingsPayloadLen > len(page) {
			return nil, 0, fmt.Errorf("settings payload truncated")
		}
		raw := make([]byte, settingsPayloadLen)
		codec.CopyBytes(raw, 0, page[off+n:], settingsPayloadLen)
		return events.Settings{At: recordTime(f["seconds"]), Raw: raw}, n + settingsPayloadLen, nil

	default:
		return nil, 0, fmt.Errorf("unknown opcode 0x%02x", page[off])
	}
}

// bolusFromFields builds a bolus from delivered/programmed milliunit fields.
// ExpectedNormal is set only when the programmed amount differs from what was
// delivered.
func bolusFromFields(f map[string]uint32) events.Bolus {
	b := events.Bolus{
		At:     recordTime(f["seconds"]),
		Normal: milliunits(f["delivered"]),
	}
	if f["programmed"] != f["delivered"] {
		expected := milliunits(f["programmed"])
		b.ExpectedNormal = &expected
	}
	return b
}
