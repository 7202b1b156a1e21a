package model

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// DefaultTimeLayout renders a screening time as "2006-01-02 15:04".
const DefaultTimeLayout = "2006-01-02 15:04"

// DateLayout is the fixed-width calendar key used by the schedule.
const DateLayout = "2006-01-02"

// Screening is a single showing of a production in a hall.
//
// Fields:
//
//	StartAt / EndsAt     – UTC instants.
//	Timezone             – IANA zone the venue lives in, used for display.
//	SecondsToEndOfSale   – raw value from the API, negative once sales closed.
//	SeatsLeft            – HallCapacity minus NumberOfBookedSeats; negative
//	                       when the upstream system oversold the hall.
type Screening struct {
	ID                  string    `json:"id"`
	ProductionID        string    `json:"productionId"`
	StartAt             time.Time `json:"startAtUtc"`
	EndsAt              time.Time `json:"endsAtUtc"`
	Timezone            string    `json:"timezone"`
	HallName            string    `json:"hallName"`
	VenueName           string    `json:"venueName"`
	URL                 string    `json:"url"`
	HallCapacity        int       `json:"hallCapacity"`
	NumberOfBookedSeats int       `json:"numberOfBookedSeats"`
	SecondsToEndOfSale  int       `json:"secondsToEndOfSale"`
	SeatsLeft           int       `json:"seatsLeft"`
}

var screeningFields = []string{
	"id", "startAtUtc", "endsAtUtc", "timezone", "productionId", "hallName",
	"venueName", "hallCapacity", "numberOfBookedSeats", "secondsToEndOfSale", "url",
}

// NewScreening builds a Screening from an API record.  All eleven fields are
// mandatory and are checked before anything is parsed.
func NewScreening(rec Record) (Screening, error) {
	const entity = "Screening"
	if err := requireFields(entity, rec, screeningFields...); err != nil {
		return Screening{}, err
	}

	var (
		s   Screening
		err error
	)
	if s.ID, err = stringField(entity, rec, "id"); err != nil {
		return Screening{}, err
	}
	if s.StartAt, err = timeField(entity, rec, "startAtUtc"); err != nil {
		return Screening{}, err
	}
	if s.EndsAt, err = timeField(entity, rec, "endsAtUtc"); err != nil {
		return Screening{}, err
	}
	if s.Timezone, err = stringField(entity, rec, "timezone"); err != nil {
		return Screening{}, err
	}
	if s.ProductionID, err = stringField(entity, rec, "productionId"); err != nil {
		return Screening{}, err
	}
	if s.HallName, err = stringField(entity, rec, "hallName"); err != nil {
		return Screening{}, err
	}
	if s.VenueName, err = stringField(entity, rec, "venueName"); err != nil {
		return Screening{}, err
	}
	if s.HallCapacity, err = intField(entity, rec, "hallCapacity"); err != nil {
		return Screening{}, err
	}
	if s.NumberOfBookedSeats, err = intField(entity, rec, "numberOfBookedSeats"); err != nil {
		return Screening{}, err
	}
	if s.SecondsToEndOfSale, err = intField(entity, rec, "secondsToEndOfSale"); err != nil {
		return Screening{}, err
	}
	if s.URL, err = stringField(entity, rec, "url"); err != nil {
		return Screening{}, err
	}
	s.SeatsLeft = s.HallCapacity - s.NumberOfBookedSeats
	return s, nil
}

// Date returns the UTC calendar day of the start time, e.g. "2025-01-10".
func (s Screening) Date() string {
	return s.StartAt.UTC().Format(DateLayout)
}

// Location resolves the screening's timezone, falling back to UTC.
func (s Screening) Location() *time.Location {
	if loc, err := time.LoadLocation(s.Timezone); err == nil && s.Timezone != "" {
		return loc
	}
	return time.UTC
}

// FormattedStartTime renders the start time in the venue's timezone.  An
// empty layout uses DefaultTimeLayout.
func (s Screening) FormattedStartTime(layout string) string {
	if layout == "" {
		layout = DefaultTimeLayout
	}
	return s.StartAt.In(s.Location()).Format(layout)
}

// FormattedEndTime renders the end time in the venue's timezone.
func (s Screening) FormattedEndTime(layout string) string {
	if layout == "" {
		layout = DefaultTimeLayout
	}
	return s.EndsAt.In(s.Location()).Format(layout)
}

// IsOnlineSaleFinished reports whether online ticket sales have closed.
func (s Screening) IsOnlineSaleFinished() bool {
	return s.SecondsToEndOfSale <= 0
}

// GetSecondsToEndOfSale returns the remaining sale window, never negative.
func (s Screening) GetSecondsToEndOfSale() int {
	return max(0, s.SecondsToEndOfSale)
}

// TimeToEndOfSaleFormatted renders the remaining sale window as "1h 2m 3s",
// "2m 3s", "3s" or "Sale ended".
func (s Screening) TimeToEndOfSaleFormatted() string {
	secs := s.GetSecondsToEndOfSale()
	if secs <= 0 {
		return "Sale ended"
	}
	hours := secs / 3600
	minutes := (secs % 3600) / 60
	rest := secs % 60
	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, rest)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, rest)
	default:
		return fmt.Sprintf("%ds", rest)
	}
}
