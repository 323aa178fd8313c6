package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/driveschool/lesson-booking/internal/schedule"
)

// SlotParams fixes everything ComputeSlots needs besides the interval
// sets. DayStart is local midnight of the requested date in the
// instructor's timezone; Now is injected so output is deterministic.
type SlotParams struct {
	InstructorID uuid.UUID
	DayStart     time.Time
	DurationMin  int
	StepMin      int
	BufferMin    int
	MinLeadMin   int
	Now          time.Time
}

// ComputeSlots enumerates the bookable windows of one day. free is the
// resolver output in minutes-of-day; busy holds active reservations, not
// yet buffer-expanded. The result is chronological and duplicate-free
// because the unbooked set is disjoint. Pure function: identical inputs
// give identical output.
func ComputeSlots(free []schedule.Span, busy []Interval, p SlotParams) []Slot {
	if p.DurationMin <= 0 || p.StepMin <= 0 {
		return nil
	}

	busySpans := make([]schedule.Span, 0, len(busy))
	for _, b := range busy {
		busySpans = append(busySpans, schedule.Span{
			Start: minuteOfDay(p.DayStart, b.Start) - p.BufferMin,
			End:   minuteOfDayCeil(p.DayStart, b.End) + p.BufferMin,
		})
	}

	unbooked := schedule.SubtractSpans(free, busySpans)

	earliest := p.Now.Add(time.Duration(p.MinLeadMin) * time.Minute)

	var slots []Slot
	for _, span := range unbooked {
		for startMin := span.Start; startMin+p.DurationMin <= span.End; startMin += p.StepMin {
			start := p.DayStart.Add(time.Duration(startMin) * time.Minute)
			if start.Before(earliest) {
				continue
			}
			slots = append(slots, Slot{
				InstructorID: p.InstructorID,
				Start:        start,
				End:          start.Add(time.Duration(p.DurationMin) * time.Minute),
			})
		}
	}

	return slots
}

func minuteOfDay(dayStart, t time.Time) int {
	return int(t.Sub(dayStart) / time.Minute)
}

// minuteOfDayCeil rounds up so a busy end on a sub-minute boundary still
// covers its last minute.
func minuteOfDayCeil(dayStart, t time.Time) int {
	d := t.Sub(dayStart)
	min := int(d / time.Minute)
	if d%time.Minute != 0 {
		min++
	}
	return min
}
