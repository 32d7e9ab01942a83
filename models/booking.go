package models

import (
	"fmt"
	"time"
)

// Service is one of the bookable salon services.
type Service string

const (
	ServiceHaircut      Service = "haircut"
	ServiceColour       Service = "colour"
	ServiceCutAndColour Service = "cut & colour"
)

// Duration returns the chair time reserved for the service.
func (s Service) Duration() time.Duration {
	switch s {
	case ServiceColour:
		return 90 * time.Minute
	case ServiceCutAndColour:
		return 2 * time.Hour
	default:
		return 45 * time.Minute
	}
}

// Stylists is the fixed roster callers can book with.
var Stylists = []string{"Cosmo", "Vince", "Cassidy"}

// ClockTime is a wall-clock time of day with no date attached.
type ClockTime struct {
	Hour   int
	Minute int
}

// Speech renders the time the way it should be spoken, e.g. "4 PM" or "4:30 PM".
func (c ClockTime) Speech() string {
	suffix := "AM"
	hour12 := c.Hour
	if c.Hour >= 12 {
		suffix = "PM"
	}
	switch {
	case hour12 == 0:
		hour12 = 12
	case hour12 > 12:
		hour12 -= 12
	}
	if c.Minute == 0 {
		return fmt.Sprintf("%d %s", hour12, suffix)
	}
	return fmt.Sprintf("%d:%02d %s", hour12, c.Minute, suffix)
}

// BookingDraft accumulates the fields collected for one call. Date and Time
// are tracked separately so the caller can correct one half without losing
// the other; DateTime only exists while both halves are known.
type BookingDraft struct {
	Service  Service
	Stylist  string
	Date     time.Time // midnight in the business timezone, zero when unknown
	Time     *ClockTime
	DateTime time.Time // zero when unknown, always Date + Time
	Name     string
	Phone    string // exactly 10 digits once confirmed
}

// Complete reports whether every field needed to book is populated.
func (d *BookingDraft) Complete() bool {
	return d.Service != "" && d.Stylist != "" && !d.DateTime.IsZero() && d.Name != "" && d.Phone != ""
}

// SetDate records a date and re-derives DateTime from the kept time half.
func (d *BookingDraft) SetDate(date time.Time) {
	d.Date = date
	d.rederive()
}

// SetTime records a time of day and re-derives DateTime from the kept date half.
func (d *BookingDraft) SetTime(t ClockTime) {
	tt := t
	d.Time = &tt
	d.rederive()
}

// SetDateTime records a full timestamp and splits it into its halves.
func (d *BookingDraft) SetDateTime(dt time.Time, loc *time.Location) {
	local := dt.In(loc)
	d.DateTime = local
	d.Date = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	d.Time = &ClockTime{Hour: local.Hour(), Minute: local.Minute()}
}

// ClearDate drops the date half, keeping the time. DateTime cannot survive.
func (d *BookingDraft) ClearDate() {
	d.Date = time.Time{}
	d.DateTime = time.Time{}
}

// ClearTime drops the time half, keeping the date. DateTime cannot survive.
func (d *BookingDraft) ClearTime() {
	d.Time = nil
	d.DateTime = time.Time{}
}

func (d *BookingDraft) rederive() {
	if d.Date.IsZero() || d.Time == nil {
		d.DateTime = time.Time{}
		return
	}
	d.DateTime = time.Date(d.Date.Year(), d.Date.Month(), d.Date.Day(),
		d.Time.Hour, d.Time.Minute, 0, 0, d.Date.Location())
}

// Booking is the committed record posted to the booking webhook.
type Booking struct {
	Service  Service   `json:"service"`
	Stylist  string    `json:"stylist"`
	Datetime time.Time `json:"datetime"`
	Name     string    `json:"name"`
	Phone    string    `json:"phone"`
}

// PendingBooking is a complete draft snapshot awaiting the caller's yes/no.
type PendingBooking struct {
	Booking
	CreatedAt time.Time
}

// Snapshot builds a Booking from a complete draft.
// Returns false when any field is still missing.
func (d *BookingDraft) Snapshot() (Booking, bool) {
	if !d.Complete() {
		return Booking{}, false
	}
	return Booking{
		Service:  d.Service,
		Stylist:  d.Stylist,
		Datetime: d.DateTime,
		Name:     d.Name,
		Phone:    d.Phone,
	}, true
}
