package models

import (
	"fmt"
	"time"
)

// DeviceHistoryFilters are the query options of the operation history.
// Values arrive as raw query strings and are validated by the ledger.
type DeviceHistoryFilters struct {
	Device    string `schema:"device" json:"device"`
	Status    string `schema:"status" json:"status"`
	Reason    string `schema:"reason" json:"reason"`
	StartDate string `schema:"start_date" json:"start_date"`
	EndDate   string `schema:"end_date" json:"end_date"`
	Sort      string `schema:"sort" json:"sort"`
	Order     string `schema:"order" json:"order"`
}

// ControlHistoryQuery is the query of the control history listing.
type ControlHistoryQuery struct {
	Limit int `schema:"limit" json:"limit"`
}

const (
	DefaultControlHistoryLimit = 50
	MaxControlHistoryLimit     = 1000
)

// Normalize clamps Limit into the accepted range.
func (q *ControlHistoryQuery) Normalize() {
	if q.Limit <= 0 {
		q.Limit = DefaultControlHistoryLimit
	}
	if q.Limit > MaxControlHistoryLimit {
		q.Limit = MaxControlHistoryLimit
	}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseFilterDate accepts RFC3339, a zone-less date-time or a bare date.
// Zone-less values are read as UTC.
func ParseFilterDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// DeviceRecordQuery is a validated DeviceHistoryFilters. Sort and Order are
// whitelisted column/direction names.
type DeviceRecordQuery struct {
	Device string
	Status *int
	Reason string
	Start  *time.Time
	End    *time.Time
	Sort   string
	Order  string
}
