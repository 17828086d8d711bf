package workflow

import (
	"math"

	"scribe/internal/media"
)

// pollPlan fixes the progress constants for the polling loop. The counter
// starts at Start, advances by Step per non-terminal poll, and never exceeds
// Ceiling; completion jumps straight to 100.
type pollPlan struct {
	Start   int
	Step    int
	Ceiling int
}

var (
	filePlan      = pollPlan{Start: 20, Step: 5, Ceiling: 95}
	recordingPlan = pollPlan{Start: 20, Step: 10, Ceiling: 90}
)

func planFor(kind media.Kind) pollPlan {
	if kind == media.KindRecorded {
		return recordingPlan
	}
	return filePlan
}

func (p pollPlan) advance(current int) int {
	next := current + p.Step
	if next > p.Ceiling {
		return p.Ceiling
	}
	return next
}

// UploadPercent maps transferred bytes to a 0-99 display percentage. Absent
// counters (zero or negative) default to loaded 1 of total 100 so a stalled
// report still renders as started rather than dividing by zero.
func UploadPercent(loaded, total int64) int {
	if total <= 0 {
		total = 100
	}
	if loaded <= 0 {
		loaded = 1
	}
	percent := int(math.Round(float64(loaded) / float64(total) * 99))
	if percent < 0 {
		return 0
	}
	if percent > 99 {
		return 99
	}
	return percent
}
