package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeScheduleRepo serves canned rows keyed the same way the resolver
// queries them.
type fakeScheduleRepo struct {
	instructors map[uuid.UUID]*Instructor
	rules       []WeeklyRule
	timeOff     []TimeOff
	overrides   []Override
}

func (f *fakeScheduleRepo) GetInstructorByID(_ context.Context, id uuid.UUID) (*Instructor, error) {
	ins, ok := f.instructors[id]
	if !ok {
		return nil, ErrInstructorNotFound
	}
	return ins, nil
}

func (f *fakeScheduleRepo) RulesForWeekday(_ context.Context, instructorID uuid.UUID, weekday int) ([]WeeklyRule, error) {
	var out []WeeklyRule
	for _, r := range f.rules {
		if r.InstructorID == instructorID && r.Weekday == weekday {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) TimeOffForDate(_ context.Context, instructorID uuid.UUID, date time.Time) ([]TimeOff, error) {
	var out []TimeOff
	for _, o := range f.timeOff {
		if o.InstructorID == instructorID && sameDate(o.Date, date) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) OverridesForDate(_ context.Context, instructorID uuid.UUID, date time.Time) ([]Override, error) {
	var out []Override
	for _, o := range f.overrides {
		if o.InstructorID == instructorID && sameDate(o.Date, date) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) CreateRule(_ context.Context, rule WeeklyRule) (*WeeklyRule, error) {
	rule.ID = uuid.New()
	f.rules = append(f.rules, rule)
	return &rule, nil
}

func (f *fakeScheduleRepo) DeleteRule(_ context.Context, _, _ uuid.UUID) error { return nil }

func (f *fakeScheduleRepo) CreateTimeOff(_ context.Context, off TimeOff) (*TimeOff, error) {
	off.ID = uuid.New()
	f.timeOff = append(f.timeOff, off)
	return &off, nil
}

func (f *fakeScheduleRepo) DeleteTimeOff(_ context.Context, _, _ uuid.UUID) error { return nil }

func (f *fakeScheduleRepo) CreateOverride(_ context.Context, ov Override) (*Override, error) {
	ov.ID = uuid.New()
	f.overrides = append(f.overrides, ov)
	return &ov, nil
}

func (f *fakeScheduleRepo) DeleteOverride(_ context.Context, _, _ uuid.UUID) error { return nil }

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func intPtr(v int) *int { return &v }

func TestResolverResolve(t *testing.T) {
	instructorID := uuid.New()
	// 2026-09-07 is a Monday.
	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	newResolver := func(repo *fakeScheduleRepo) *Resolver {
		return NewResolver(repo, nil, zap.NewNop())
	}

	t.Run("no rules and no overrides means day off", func(t *testing.T) {
		r := newResolver(&fakeScheduleRepo{})
		spans, err := r.Resolve(context.Background(), instructorID, monday)
		require.NoError(t, err)
		assert.Empty(t, spans)
	})

	t.Run("overlapping rules are merged", func(t *testing.T) {
		r := newResolver(&fakeScheduleRepo{
			rules: []WeeklyRule{
				{InstructorID: instructorID, Weekday: 1, StartMin: 480, EndMin: 660},
				{InstructorID: instructorID, Weekday: 1, StartMin: 600, EndMin: 720},
			},
		})
		spans, err := r.Resolve(context.Background(), instructorID, monday)
		require.NoError(t, err)
		assert.Equal(t, []Span{{480, 720}}, spans)
	})

	t.Run("rule for another weekday is ignored", func(t *testing.T) {
		r := newResolver(&fakeScheduleRepo{
			rules: []WeeklyRule{
				{InstructorID: instructorID, Weekday: 2, StartMin: 480, EndMin: 720},
			},
		})
		spans, err := r.Resolve(context.Background(), instructorID, monday)
		require.NoError(t, err)
		assert.Empty(t, spans)
	})

	t.Run("full day time off empties the day", func(t *testing.T) {
		r := newResolver(&fakeScheduleRepo{
			rules: []WeeklyRule{
				{InstructorID: instructorID, Weekday: 1, StartMin: 480, EndMin: 720},
			},
			timeOff: []TimeOff{
				{InstructorID: instructorID, Date: monday},
			},
		})
		spans, err := r.Resolve(context.Background(), instructorID, monday)
		require.NoError(t, err)
		assert.Empty(t, spans)
	})

	t.Run("partial time off splits the window", func(t *testing.T) {
		r := newResolver(&fakeScheduleRepo{
			rules: []WeeklyRule{
				{InstructorID: instructorID, Weekday: 1, StartMin: 480, EndMin: 720},
			},
			timeOff: []TimeOff{
				{InstructorID: instructorID, Date: monday, StartMin: intPtr(540), EndMin: intPtr(600)},
			},
		})
		spans, err := r.Resolve(context.Background(), instructorID, monday)
		require.NoError(t, err)
		assert.Equal(t, []Span{{480, 540}, {600, 720}}, spans)
	})

	t.Run("time off outside the window is a no-op", func(t *testing.T) {
		r := newResolver(&fakeScheduleRepo{
			rules: []WeeklyRule{
				{InstructorID: instructorID, Weekday: 1, StartMin: 480, EndMin: 720},
			},
			timeOff: []TimeOff{
				{InstructorID: instructorID, Date: monday, StartMin: intPtr(1080), EndMin: intPtr(1140)},
			},
		})
		spans, err := r.Resolve(context.Background(), instructorID, monday)
		require.NoError(t, err)
		assert.Equal(t, []Span{{480, 720}}, spans)
	})

	t.Run("add override opens a day with no rules", func(t *testing.T) {
		r := newResolver(&fakeScheduleRepo{
			overrides: []Override{
				{InstructorID: instructorID, Date: monday, StartMin: 600, EndMin: 780, Polarity: PolarityAdd},
			},
		})
		spans, err := r.Resolve(context.Background(), instructorID, monday)
		require.NoError(t, err)
		assert.Equal(t, []Span{{600, 780}}, spans)
	})

	t.Run("add override unions with rules before subtraction", func(t *testing.T) {
		r := newResolver(&fakeScheduleRepo{
			rules: []WeeklyRule{
				{InstructorID: instructorID, Weekday: 1, StartMin: 480, EndMin: 720},
			},
			overrides: []Override{
				{InstructorID: instructorID, Date: monday, StartMin: 700, EndMin: 840, Polarity: PolarityAdd},
				{InstructorID: instructorID, Date: monday, StartMin: 500, EndMin: 520, Polarity: PolarityRemove},
			},
		})
		spans, err := r.Resolve(context.Background(), instructorID, monday)
		require.NoError(t, err)
		assert.Equal(t, []Span{{480, 500}, {520, 840}}, spans)
	})

	t.Run("remove override and time off commute", func(t *testing.T) {
		repo := &fakeScheduleRepo{
			rules: []WeeklyRule{
				{InstructorID: instructorID, Weekday: 1, StartMin: 480, EndMin: 720},
			},
			overrides: []Override{
				{InstructorID: instructorID, Date: monday, StartMin: 500, EndMin: 560, Polarity: PolarityRemove},
			},
			timeOff: []TimeOff{
				{InstructorID: instructorID, Date: monday, StartMin: intPtr(540), EndMin: intPtr(620)},
			},
		}
		spans, err := newResolver(repo).Resolve(context.Background(), instructorID, monday)
		require.NoError(t, err)
		assert.Equal(t, []Span{{480, 500}, {620, 720}}, spans)
	})

	t.Run("result is sorted and disjoint", func(t *testing.T) {
		r := newResolver(&fakeScheduleRepo{
			rules: []WeeklyRule{
				{InstructorID: instructorID, Weekday: 1, StartMin: 840, EndMin: 1020},
				{InstructorID: instructorID, Weekday: 1, StartMin: 480, EndMin: 720},
			},
		})
		spans, err := r.Resolve(context.Background(), instructorID, monday)
		require.NoError(t, err)
		for i := 1; i < len(spans); i++ {
			assert.Less(t, spans[i-1].End, spans[i].Start)
		}
	})
}
