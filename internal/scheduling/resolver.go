package scheduling

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"hospital-app-server/internal/models"
)

// SlotLength is the fixed length of a bookable slot.
const SlotLength = 30 * time.Minute

// DayPlan is everything needed to enumerate a doctor's free slots on one
// date. It holds no connection to storage.
type DayPlan struct {
	Date     models.Date
	Window   *models.WeeklyAvailabilityWindow
	TimeOff  []models.TimeOffInterval
	Booked   []models.TimeOfDay
	Location *time.Location
}

// Slots yields the free slot start times in ascending order. A missing or
// unavailable window, or any time off touching the window, yields nothing.
// Iterating twice yields the same sequence.
func (p DayPlan) Slots() iter.Seq[models.TimeOfDay] {
	return func(yield func(models.TimeOfDay) bool) {
		w := p.Window
		if w == nil || !w.IsAvailable || w.DayOfWeek != models.Weekday(p.Date) {
			return
		}

		loc := p.Location
		if loc == nil {
			loc = time.UTC
		}
		day := time.Time(p.Date)
		windowStart := w.StartTime.On(day, loc)
		windowEnd := w.EndTime.On(day, loc)
		for i := range p.TimeOff {
			if p.TimeOff[i].Overlaps(windowStart, windowEnd) {
				return
			}
		}

		for t := w.StartTime; w.Fits(t, SlotLength); t = t.Add(SlotLength) {
			if slices.Contains(p.Booked, t) {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// FormatSlots renders a slot sequence as "HH:MM" strings. It never returns nil.
func FormatSlots(seq iter.Seq[models.TimeOfDay]) []string {
	out := []string{}
	for t := range seq {
		out = append(out, t.String())
	}
	return out
}

// BookedTimes lists the start times already taken on a doctor's date.
type BookedTimes interface {
	BookedTimes(ctx context.Context, doctorID uint, date models.Date) ([]models.TimeOfDay, error)
}

// SlotCache stores computed slot lists per doctor and date. Set must drop
// the list if the doctor was invalidated after gen was read.
type SlotCache interface {
	Get(ctx context.Context, doctorID uint, date models.Date) ([]string, bool)
	Generation(ctx context.Context, doctorID uint) (int64, bool)
	Set(ctx context.Context, doctorID uint, date models.Date, slots []string, gen int64)
	InvalidateDay(ctx context.Context, doctorID uint, date models.Date)
	InvalidateDoctor(ctx context.Context, doctorID uint)
}

// Resolver answers availability queries from the schedule store and the
// appointment ledger.
type Resolver struct {
	store  *Store
	booked BookedTimes
	cache  SlotCache
	loc    *time.Location
	log    zerolog.Logger
}

// NewResolver wires a Resolver. cache may be nil.
func NewResolver(store *Store, booked BookedTimes, cache SlotCache, loc *time.Location, log zerolog.Logger) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{
		store:  store,
		booked: booked,
		cache:  cache,
		loc:    loc,
		log:    log.With().Str("component", "availability").Logger(),
	}
}

// Plan loads the inputs for one doctor and date.
func (r *Resolver) Plan(ctx context.Context, doctorID uint, date models.Date) (DayPlan, error) {
	plan := DayPlan{Date: date, Location: r.loc}

	window, err := r.store.AvailableWindowFor(ctx, doctorID, models.Weekday(date))
	if err != nil {
		return plan, fmt.Errorf("load weekly window: %w", err)
	}
	if window == nil {
		return plan, nil
	}
	plan.Window = window

	day := time.Time(date)
	plan.TimeOff, err = r.store.TimeOffOverlapping(ctx, doctorID, window.StartTime.On(day, r.loc), window.EndTime.On(day, r.loc))
	if err != nil {
		return plan, fmt.Errorf("load time off: %w", err)
	}

	plan.Booked, err = r.booked.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return plan, fmt.Errorf("load booked times: %w", err)
	}
	return plan, nil
}

// AvailableSlots returns the doctor's free slot start times on date.
func (r *Resolver) AvailableSlots(ctx context.Context, doctorID uint, date models.Date) ([]string, error) {
	var (
		gen       int64
		cacheable bool
	)
	if r.cache != nil {
		if slots, ok := r.cache.Get(ctx, doctorID, date); ok {
			return slots, nil
		}
		gen, cacheable = r.cache.Generation(ctx, doctorID)
	}

	plan, err := r.Plan(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	slots := FormatSlots(plan.Slots())

	r.log.Debug().
		Uint("doctor_id", doctorID).
		Str("date", models.FormatDate(date)).
		Int("slots", len(slots)).
		Msg("available slots computed")

	if cacheable {
		r.cache.Set(ctx, doctorID, date, slots, gen)
	}
	return slots, nil
}

// ForgetDay drops cached slots for one doctor and date.
func (r *Resolver) ForgetDay(ctx context.Context, doctorID uint, date models.Date) {
	if r.cache != nil {
		r.cache.InvalidateDay(ctx, doctorID, date)
	}
}

// ForgetDoctor drops every cached slot list for the doctor.
func (r *Resolver) ForgetDoctor(ctx context.Context, doctorID uint) {
	if r.cache != nil {
		r.cache.InvalidateDoctor(ctx, doctorID)
	}
}
