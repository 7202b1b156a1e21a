package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tricket/internal/model"
	"github.com/iliyamo/tricket/internal/schedule"
	"github.com/iliyamo/tricket/internal/service"
)

// Schedule views accepted in ?view=.
const (
	ViewFull     = "full"
	ViewToday    = "today"
	ViewTomorrow = "tomorrow"
	ViewWeek     = "week"
	ViewNext7    = "next7"
	ViewDate     = "date"
	ViewRange    = "range"
)

// ScheduleHandler serves the chronological programme.
type ScheduleHandler struct {
	Tricket *service.Tricket
}

// ScheduleDay is one day of the full view.
type ScheduleDay struct {
	Date       string            `json:"date"`
	Screenings []model.Screening `json:"screenings"`
}

// ScheduleGroup is one production with its screenings in the selected view.
type ScheduleGroup struct {
	ProductionID string            `json:"productionId"`
	Title        string            `json:"title"`
	URL          string            `json:"url"`
	Screenings   []model.Screening `json:"screenings"`
}

// GetSchedule answers ?view=full|today|tomorrow|week|next7|date|range.
// date takes ?date=, range takes ?start= and ?end=. The selection can be
// narrowed by ?venue=, ?tag=, ?tag_name= or ?tags=a,b, and
// ?group=production groups the result by production.
func (h *ScheduleHandler) GetSchedule(c echo.Context) error {
	s := h.Tricket.GetSchedule(c.Request().Context())

	view := c.QueryParam("view")
	if view == "" {
		view = ViewFull
	}

	var list []model.Screening
	switch view {
	case ViewFull:
		list = s.AllScreenings()
	case ViewToday:
		list = s.TodaysScreenings()
	case ViewTomorrow:
		list = s.TomorrowsScreenings()
	case ViewWeek:
		list = s.ThisWeeksScreenings()
	case ViewNext7:
		list = s.NextSevenDaysScreenings()
	case ViewDate:
		date := c.QueryParam("date")
		if !validDate(date) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		list = s.ScreeningsForDate(date)
	case ViewRange:
		start, end := c.QueryParam("start"), c.QueryParam("end")
		if !validDate(start) || !validDate(end) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "start and end must be YYYY-MM-DD"})
		}
		list = s.ScreeningsForDateRange(start, end)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown view"})
	}

	list = narrow(s, list, c)

	if c.QueryParam("group") == "production" {
		groups := s.GroupByProduction(list)
		out := make([]ScheduleGroup, 0, len(groups))
		for _, g := range groups {
			out = append(out, ScheduleGroup{
				ProductionID: g.Production.ID,
				Title:        g.Production.Title,
				URL:          h.Tricket.ProductionURL(g.Production),
				Screenings:   g.Screenings,
			})
		}
		return c.JSON(http.StatusOK, echo.Map{"view": view, "count": len(list), "groups": out})
	}
	if view == ViewFull && c.QueryParam("flat") == "" {
		return c.JSON(http.StatusOK, echo.Map{"view": view, "count": len(list), "days": byDay(list)})
	}
	return c.JSON(http.StatusOK, echo.Map{"view": view, "count": len(list), "items": list})
}

// narrow applies the optional venue and tag filters in that order.
func narrow(s *schedule.Schedule, list []model.Screening, c echo.Context) []model.Screening {
	if venue := c.QueryParam("venue"); venue != "" {
		kept := []model.Screening{}
		for _, sc := range list {
			if sc.VenueName == venue {
				kept = append(kept, sc)
			}
		}
		list = kept
	}
	switch {
	case c.QueryParam("tag") != "":
		list = s.FilterByTagID(list, c.QueryParam("tag"))
	case c.QueryParam("tag_name") != "":
		list = s.FilterByTagName(list, c.QueryParam("tag_name"))
	case c.QueryParam("tags") != "":
		list = s.FilterByTagIDs(list, splitList(c.QueryParam("tags")))
	}
	return list
}

// byDay splits a chronological list into consecutive days.
func byDay(list []model.Screening) []ScheduleDay {
	days := []ScheduleDay{}
	for _, sc := range list {
		d := sc.Date()
		if n := len(days); n == 0 || days[n-1].Date != d {
			days = append(days, ScheduleDay{Date: d})
		}
		days[len(days)-1].Screenings = append(days[len(days)-1].Screenings, sc)
	}
	return days
}

// GetDates lists the days that have screenings.
func (h *ScheduleHandler) GetDates(c echo.Context) error {
	s := h.Tricket.GetSchedule(c.Request().Context())
	return c.JSON(http.StatusOK, echo.Map{"items": s.AvailableDates()})
}

// GetVenues lists the distinct venues.
func (h *ScheduleHandler) GetVenues(c echo.Context) error {
	s := h.Tricket.GetSchedule(c.Request().Context())
	return c.JSON(http.StatusOK, echo.Map{"items": s.Venues()})
}
