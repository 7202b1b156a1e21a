// Package schedule indexes the screenings of a production snapshot by day
// and answers the date, venue and tag queries behind the public programme.
//
// A Schedule is built once and never changes: it keeps the full screening
// history (past screenings included, unlike Production.CurrentScreenings)
// and does not notice later changes to the productions it was built from.
// Date keys are fixed-width "YYYY-MM-DD" strings derived from the UTC start
// time, which is what makes plain string comparison valid for ranges.
package schedule

import (
	"sort"
	"time"

	"github.com/iliyamo/tricket/internal/model"
)

// Schedule is an immutable index over a production snapshot.
type Schedule struct {
	productions []model.Production
	byID        map[string]int
	all         []model.Screening
	byDate      map[string][]model.Screening
	dates       []string
	clock       Clock
	loc         *time.Location
}

// Option customizes a Schedule.
type Option func(*Schedule)

// WithClock replaces the wall clock used for today/tomorrow/week views.
func WithClock(c Clock) Option {
	return func(s *Schedule) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLocation sets the zone in which "today" is evaluated.  Date keys
// themselves are always UTC days.
func WithLocation(loc *time.Location) Option {
	return func(s *Schedule) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// New builds the schedule from productions.  The slice is borrowed for
// production lookups and must not be modified afterwards.
func New(productions []model.Production, opts ...Option) *Schedule {
	s := &Schedule{
		productions: productions,
		byID:        make(map[string]int, len(productions)),
		byDate:      map[string][]model.Screening{},
		clock:       SystemClock{},
		loc:         time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}

	for i, p := range productions {
		if _, seen := s.byID[p.ID]; !seen {
			s.byID[p.ID] = i
		}
		s.all = append(s.all, p.AllScreenings()...)
	}
	if s.all == nil {
		s.all = []model.Screening{}
	}
	sort.SliceStable(s.all, func(i, j int) bool { return s.all[i].StartAt.Before(s.all[j].StartAt) })

	for _, sc := range s.all {
		d := sc.Date()
		if _, ok := s.byDate[d]; !ok {
			s.dates = append(s.dates, d)
		}
		s.byDate[d] = append(s.byDate[d], sc)
	}
	sort.Strings(s.dates)
	return s
}

func (s *Schedule) today() time.Time {
	now := s.clock.Now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

func dateKey(t time.Time) string { return t.Format(model.DateLayout) }

// ScreeningsForDate returns the screenings starting on date ("YYYY-MM-DD").
func (s *Schedule) ScreeningsForDate(date string) []model.Screening {
	return clone(s.byDate[date])
}

// TodaysScreenings returns the screenings of the current day.
func (s *Schedule) TodaysScreenings() []model.Screening {
	return s.ScreeningsForDate(dateKey(s.today()))
}

// TomorrowsScreenings returns the screenings of the next day.
func (s *Schedule) TomorrowsScreenings() []model.Screening {
	return s.ScreeningsForDate(dateKey(s.today().AddDate(0, 0, 1)))
}

// ScreeningsForDateRange returns the screenings from start to end inclusive,
// in chronological order.
func (s *Schedule) ScreeningsForDateRange(start, end string) []model.Screening {
	out := []model.Screening{}
	for _, d := range s.dates {
		if d >= start && d <= end {
			out = append(out, s.byDate[d]...)
		}
	}
	return out
}

// ThisWeeksScreenings covers Monday through Sunday of the current week.
func (s *Schedule) ThisWeeksScreenings() []model.Screening {
	today := s.today()
	offset := (int(today.Weekday()) + 6) % 7
	monday := today.AddDate(0, 0, -offset)
	return s.ScreeningsForDateRange(dateKey(monday), dateKey(monday.AddDate(0, 0, 6)))
}

// NextSevenDaysScreenings covers today and the six days after it.
func (s *Schedule) NextSevenDaysScreenings() []model.Screening {
	today := s.today()
	return s.ScreeningsForDateRange(dateKey(today), dateKey(today.AddDate(0, 0, 6)))
}

// AvailableDates lists the days that have screenings, ascending.
func (s *Schedule) AvailableDates() []string {
	out := make([]string, len(s.dates))
	copy(out, s.dates)
	return out
}

// FullSchedule returns the date -> screenings mapping.  Iterate it with
// AvailableDates for chronological order.
func (s *Schedule) FullSchedule() map[string][]model.Screening {
	out := make(map[string][]model.Screening, len(s.byDate))
	for d, list := range s.byDate {
		out[d] = clone(list)
	}
	return out
}

// AllScreenings returns every screening in chronological order.
func (s *Schedule) AllScreenings() []model.Screening {
	return clone(s.all)
}

// ScreeningsForVenue returns the screenings at the venue with exactly this name.
func (s *Schedule) ScreeningsForVenue(venue string) []model.Screening {
	return filter(s.all, func(sc model.Screening) bool { return sc.VenueName == venue })
}

// Venues lists the distinct venue names, sorted.
func (s *Schedule) Venues() []string {
	seen := map[string]bool{}
	out := []string{}
	for _, sc := range s.all {
		if !seen[sc.VenueName] {
			seen[sc.VenueName] = true
			out = append(out, sc.VenueName)
		}
	}
	sort.Strings(out)
	return out
}

// HasScreenings reports whether the schedule holds anything at all.
func (s *Schedule) HasScreenings() bool { return len(s.all) > 0 }

// TotalScreeningsCount is the number of indexed screenings.
func (s *Schedule) TotalScreeningsCount() int { return len(s.all) }

// ProductionByID looks a production up in the snapshot.
func (s *Schedule) ProductionByID(id string) (model.Production, bool) {
	i, ok := s.byID[id]
	if !ok {
		return model.Production{}, false
	}
	return s.productions[i], true
}

// FilterByTagID keeps the screenings whose production carries tagID.
// Screenings whose production is not in the snapshot are dropped.
func (s *Schedule) FilterByTagID(screenings []model.Screening, tagID string) []model.Screening {
	return s.filterByProduction(screenings, func(p model.Production) bool { return p.HasTag(tagID) })
}

// FilterByTagName keeps the screenings whose production carries a tag with
// this name, compared case-insensitively.
func (s *Schedule) FilterByTagName(screenings []model.Screening, name string) []model.Screening {
	return s.filterByProduction(screenings, func(p model.Production) bool { return p.HasTagName(name) })
}

// FilterByTagIDs keeps the screenings whose production carries any of tagIDs.
func (s *Schedule) FilterByTagIDs(screenings []model.Screening, tagIDs []string) []model.Screening {
	return s.filterByProduction(screenings, func(p model.Production) bool { return p.HasAnyTag(tagIDs) })
}

func (s *Schedule) filterByProduction(screenings []model.Screening, keep func(model.Production) bool) []model.Screening {
	return filter(screenings, func(sc model.Screening) bool {
		p, ok := s.ProductionByID(sc.ProductionID)
		return ok && keep(p)
	})
}

// ScreeningsByTagID returns all screenings of productions tagged tagID.
func (s *Schedule) ScreeningsByTagID(tagID string) []model.Screening {
	return s.FilterByTagID(s.all, tagID)
}

// ScreeningsByTagName returns all screenings of productions with a tag named name.
func (s *Schedule) ScreeningsByTagName(name string) []model.Screening {
	return s.FilterByTagName(s.all, name)
}

// ScreeningsByTagIDs returns all screenings of productions with any of tagIDs.
func (s *Schedule) ScreeningsByTagIDs(tagIDs []string) []model.Screening {
	return s.FilterByTagIDs(s.all, tagIDs)
}

// TodaysScreeningsByTag narrows today's screenings to tagID.
func (s *Schedule) TodaysScreeningsByTag(tagID string) []model.Screening {
	return s.FilterByTagID(s.TodaysScreenings(), tagID)
}

// ScreeningsForDateByTag narrows a single day to tagID.
func (s *Schedule) ScreeningsForDateByTag(date, tagID string) []model.Screening {
	return s.FilterByTagID(s.ScreeningsForDate(date), tagID)
}

// ScreeningsForDateRangeByTag narrows an inclusive date range to tagID.
func (s *Schedule) ScreeningsForDateRangeByTag(start, end, tagID string) []model.Screening {
	return s.FilterByTagID(s.ScreeningsForDateRange(start, end), tagID)
}

// ProductionScreenings pairs a production with its screenings in a view.
type ProductionScreenings struct {
	Production model.Production
	Screenings []model.Screening
}

// GroupByProduction groups screenings by production in order of first
// appearance.  Screenings whose production is unknown are skipped.
func (s *Schedule) GroupByProduction(screenings []model.Screening) []ProductionScreenings {
	index := map[string]int{}
	out := []ProductionScreenings{}
	for _, sc := range screenings {
		i, ok := index[sc.ProductionID]
		if !ok {
			p, found := s.ProductionByID(sc.ProductionID)
			if !found {
				continue
			}
			i = len(out)
			index[sc.ProductionID] = i
			out = append(out, ProductionScreenings{Production: p})
		}
		out[i].Screenings = append(out[i].Screenings, sc)
	}
	return out
}

func filter(in []model.Screening, keep func(model.Screening) bool) []model.Screening {
	out := []model.Screening{}
	for _, sc := range in {
		if keep(sc) {
			out = append(out, sc)
		}
	}
	return out
}

func clone(in []model.Screening) []model.Screening {
	out := make([]model.Screening, len(in))
	copy(out, in)
	return out
}
