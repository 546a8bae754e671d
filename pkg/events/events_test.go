package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sherine-k/infusion/pkg/events"
)

var start = time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)

func TestBasalClose(t *testing.T) {
	open := events.Basal{At: start, Rate: 0.75}

	closed := open.Close(start.Add(45 * time.Minute))
	require.NotNil(t, closed.Duration)
	assert.Equal(t, 45*time.Minute, *closed.Duration)
	assert.Equal(t, events.UnknownSchedule, closed.ScheduleName)

	// The receiver is a value; the original stays open.
	assert.False(t, open.Closed())
	assert.Empty(t, open.ScheduleName)
}

func TestBasalClose_KeepsExistingDuration(t *testing.T) {
	d := 10 * time.Minute
	b := events.Basal{At: start, Rate: 1, Duration: &d, ScheduleName: "Standard"}

	closed := b.Close(start.Add(time.Hour))
	assert.Equal(t, 10*time.Minute, *closed.Duration, "a set duration is never recomputed")
	assert.Equal(t, "Standard", closed.ScheduleName)
}

func TestBasalSnapshotDropsPrevious(t *testing.T) {
	older := events.Basal{At: start.Add(-time.Hour), Rate: 0.5}
	b := events.Basal{At: start, Rate: 1, Previous: &older}

	snap := b.Snapshot()
	assert.Nil(t, snap.Previous)
	assert.Equal(t, b.At, snap.At)
	require.NotNil(t, b.Previous, "snapshotting must not touch the original")
}

func TestBolusDegenerate(t *testing.T) {
	expected := 1.5

	assert.True(t, events.Bolus{At: start, Normal: 0}.Degenerate())
	assert.False(t, events.Bolus{At: start, Normal: 0, ExpectedNormal: &expected}.Degenerate())
	assert.False(t, events.Bolus{At: start, Normal: 0.1}.Degenerate())
}

func TestKinds(t *testing.T) {
	recs := map[events.Kind]events.Record{
		events.KindAlarm:            events.Alarm{At: start},
		events.KindBasal:            events.Basal{At: start},
		events.KindBolus:            events.Bolus{At: start},
		events.KindChangeDeviceTime: events.ChangeDeviceTime{At: start},
		events.KindChangeReservoir:  events.ChangeReservoir{At: start},
		events.KindResume:           events.Resume{At: start},
		events.KindSettings:         events.Settings{At: start},
		events.KindSMBG:             events.SMBG{At: start},
		events.KindSuspend:          events.Suspend{At: start},
		events.KindWizard:           events.Wizard{At: start},
	}
	for kind, r := range recs {
		assert.Equal(t, kind, r.Kind())
		assert.Equal(t, start, r.Time())
	}
}
