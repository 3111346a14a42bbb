package service

import (
	"fmt"
	"strconv"
	"time"
)

type ScopeType string

const (
	ScopePublic   ScopeType = "public"
	ScopePrivate  ScopeType = "private"
	ScopeAll      ScopeType = "all"
	ScopeMonth    ScopeType = "month"
	ScopeRangeAll ScopeType = "rangeAll"
)

// ScopeFilter selects which events a document covers.
type ScopeFilter struct {
	Type  ScopeType
	Year  int
	Month time.Month
	// PublicOnly restricts any scope to public events, e.g. for anonymous callers.
	PublicOnly bool
}

// ParseScope reads the export query parameters. An empty type means public.
func ParseScope(kind, year, month string) (ScopeFilter, error) {
	switch ScopeType(kind) {
	case "", ScopePublic:
		return ScopeFilter{Type: ScopePublic}, nil
	case ScopeAll, ScopePrivate:
		return ScopeFilter{Type: ScopeAll}, nil
	case ScopeRangeAll, "range-all":
		return ScopeFilter{Type: ScopeRangeAll}, nil
	case ScopeMonth:
		y, err := strconv.Atoi(year)
		if err != nil || y < 1970 || y > 9999 {
			return ScopeFilter{}, fmt.Errorf("invalid year %q", year)
		}
		m, err := strconv.Atoi(month)
		if err != nil || m < 1 || m > 12 {
			return ScopeFilter{}, fmt.Errorf("invalid month %q", month)
		}
		return ScopeFilter{Type: ScopeMonth, Year: y, Month: time.Month(m)}, nil
	}
	return ScopeFilter{}, fmt.Errorf("unknown scope %q", kind)
}

func (s ScopeFilter) IsPublicView() bool {
	return s.Type == ScopePublic || s.PublicOnly
}

// Window returns the [from, to) bounds of the scope. A nil bound is open.
func (s ScopeFilter) Window(now time.Time, loc *time.Location, lookbackMonths int) (from, to *time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	switch s.Type {
	case ScopeRangeAll:
		return nil, nil
	case ScopeMonth:
		start := time.Date(s.Year, s.Month, 1, 0, 0, 0, 0, loc)
		end := start.AddDate(0, 1, 0)
		return &start, &end
	}
	if lookbackMonths <= 0 {
		return nil, nil
	}
	start := now.In(loc).AddDate(0, -lookbackMonths, 0)
	return &start, nil
}

// Key is the stable textual form used in cache keys and filenames.
func (s ScopeFilter) Key() string {
	key := string(s.Type)
	if s.Type == ScopeMonth {
		key = fmt.Sprintf("%s-%04d-%02d", s.Type, s.Year, int(s.Month))
	}
	if s.PublicOnly && s.Type != ScopePublic {
		key += "-public"
	}
	return key
}
