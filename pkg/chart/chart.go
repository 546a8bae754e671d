package chart

import (
	"fmt"
	"strings"
	"time"

	"github.com/sherine-k/infusion/pkg/events"
)

const (
	chartWidth  = 80
	chartHeight = 10
)

// Generator generates ASCII charts
type Generator struct {
	width  int
	height int
}

// NewGenerator creates a new chart generator
func NewGenerator() *Generator {
	return &Generator{
		width:  chartWidth,
		height: chartHeight,
	}
}

// GenerateBasalChart generates an ASCII chart of the basal rate across the
// closed segments of the final log. Open-ended segments carry no duration and
// are left out.
func (g *Generator) GenerateBasalChart(records []events.Record) string {
	type segment struct {
		rate     float64
		duration time.Duration
	}

	var segments []segment
	var total time.Duration
	maxRate := 0.0
	for _, r := range records {
		b, ok := r.(events.Basal)
		if !ok || !b.Closed() {
			continue
		}
		segments = append(segments, segment{rate: b.Rate, duration: *b.Duration})
		total += *b.Duration
		if b.Rate > maxRate {
			maxRate = b.Rate
		}
	}

	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("Basal Rate Over Time\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	if len(segments) == 0 || total == 0 || maxRate == 0 {
		sb.WriteString("No closed basal segments to display\n")
		return sb.String()
	}

	// Spread segments across the chart width in proportion to duration.
	cols := g.width - 8
	levels := make([]int, cols)
	col := 0
	var elapsed time.Duration
	for _, seg := range segments {
		elapsed += seg.duration
		end := int(float64(elapsed) / float64(total) * float64(cols))
		level := int(seg.rate / maxRate * float64(g.height))
		if level == 0 && seg.rate > 0 {
			level = 1
		}
		for ; col < end && col < cols; col++ {
			levels[col] = level
		}
	}

	for row := g.height; row >= 1; row-- {
		rate := maxRate * float64(row) / float64(g.height)
		sb.WriteString(fmt.Sprintf("%5.2f |", rate))
		for _, level := range levels {
			if level >= row {
				sb.WriteString("█")
			} else {
				sb.WriteString(" ")
			}
		}
		sb.WriteString("\n")
	}

	// X-axis
	sb.WriteString("      +")
	sb.WriteString(strings.Repeat("-", cols))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("      %d segments over %s (U/hr vs time)\n", len(segments), FormatDuration(total)))

	return sb.String()
}

// GenerateEventSummary generates a summary of the final log
func (g *Generator) GenerateEventSummary(records []events.Record) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("Event Summary\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	byKind := make(map[events.Kind]int)
	bolusTotal := 0.0
	basalTotal := 0.0
	for _, r := range records {
		byKind[r.Kind()]++
		switch r := r.(type) {
		case events.Bolus:
			bolusTotal += r.Normal
		case events.Basal:
			if r.Closed() {
				basalTotal += r.Rate * r.Duration.Hours()
			}
		}
	}

	sb.WriteString(fmt.Sprintf("Total Events: %d\n", len(records)))
	for _, kind := range []events.Kind{
		events.KindAlarm,
		events.KindBasal,
		events.KindBolus,
		events.KindChangeDeviceTime,
		events.KindChangeReservoir,
		events.KindResume,
		events.KindSettings,
		events.KindSMBG,
		events.KindSuspend,
		events.KindWizard,
	} {
		if n := byKind[kind]; n > 0 {
			sb.WriteString(fmt.Sprintf("  - %s: %d\n", kind, n))
		}
	}
	sb.WriteString(fmt.Sprintf("\nBolus insulin: %.2f U\n", bolusTotal))
	sb.WriteString(fmt.Sprintf("Basal insulin (closed segments): %.2f U\n", basalTotal))
	sb.WriteString("\n")

	return sb.String()
}

// GenerateDetailedTimeline generates a detailed timeline of the final log
func (g *Generator) GenerateDetailedTimeline(records []events.Record, limit int) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("Detailed Timeline")
	if limit > 0 && limit < len(records) {
		sb.WriteString(fmt.Sprintf(" (showing first %d events)", limit))
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	displayCount := len(records)
	if limit > 0 && limit < displayCount {
		displayCount = limit
	}

	for i := 0; i < displayCount; i++ {
		r := records[i]
		timestamp := r.Time().Format("2006-01-02 15:04:05")
		sb.WriteString(fmt.Sprintf("[%s] %s %s\n", timestamp, timelineIcon(r), describe(r)))
	}

	if limit > 0 && limit < len(records) {
		sb.WriteString(fmt.Sprintf("\n... and %d more events\n", len(records)-limit))
	}

	sb.WriteString("\n")

	return sb.String()
}

func timelineIcon(r events.Record) string {
	switch r.Kind() {
	case events.KindAlarm:
		return "!"
	case events.KindBasal:
		return "="
	case events.KindBolus:
		return "+"
	case events.KindSMBG:
		return "o"
	case events.KindSuspend:
		return "x"
	case events.KindResume:
		return ">"
	case events.KindWizard:
		return "?"
	default:
		return " "
	}
}

func describe(r events.Record) string {
	switch r := r.(type) {
	case events.Alarm:
		return fmt.Sprintf("alarm code %d", r.Code)
	case events.Basal:
		if r.Closed() {
			return fmt.Sprintf("basal %.3f U/hr for %s (%s)", r.Rate, FormatDuration(*r.Duration), r.ScheduleName)
		}
		return fmt.Sprintf("basal %.3f U/hr (open)", r.Rate)
	case events.Bolus:
		if r.ExpectedNormal != nil {
			return fmt.Sprintf("bolus %.3f U (programmed %.3f U)", r.Normal, *r.ExpectedNormal)
		}
		return fmt.Sprintf("bolus %.3f U", r.Normal)
	case events.ChangeDeviceTime:
		return fmt.Sprintf("device clock set to %s", r.To.Format("2006-01-02 15:04:05"))
	case events.ChangeReservoir:
		return "reservoir changed"
	case events.Resume:
		return "delivery resumed"
	case events.Settings:
		return fmt.Sprintf("settings changed (%d bytes)", len(r.Raw))
	case events.SMBG:
		return fmt.Sprintf("blood glucose %.0f mg/dL", r.Value)
	case events.Suspend:
		return "delivery suspended"
	case events.Wizard:
		if r.Bolus != nil {
			return fmt.Sprintf("wizard: %.0f g carbs, recommended %.3f U, delivered %.3f U", r.Carbs, r.Recommended, r.Bolus.Normal)
		}
		return fmt.Sprintf("wizard: %.0f g carbs, recommended %.3f U", r.Carbs, r.Recommended)
	default:
		return string(r.Kind())
	}
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
