package cvrptw

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Window is an (open, close) pair in minutes from midnight
type Window struct {
	Open  int
	Close int
}

// MinutesPerDay is the scheduling horizon unit
const MinutesPerDay = 24 * 60

// ParseTimeRangeLabel parses a free-form catalog label like
// "10 am-9 pm" into a window. It returns (nil, true) for "closed",
// a full-day window for "open 24 hours", and (nil, false) when the
// label cannot be parsed. A close at or before the open is lifted to
// midnight.
func ParseTimeRangeLabel(label string) (w *Window, closed bool) {
	s := strings.ToLower(strings.TrimSpace(label))
	if strings.Contains(s, "closed") {
		return nil, true
	}
	if strings.Contains(s, "open 24 hours") {
		return &Window{Open: 0, Close: MinutesPerDay}, false
	}

	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return nil, false
	}
	open, err1 := parseClockLabel(parts[0])
	close, err2 := parseClockLabel(parts[1])
	if err1 != nil || err2 != nil {
		return nil, false
	}
	if close <= open {
		close = MinutesPerDay
	}
	return &Window{Open: open, Close: close}, false
}

// parseClockLabel parses "9", "9:30", "9 am", "12:15 pm" to minutes
func parseClockLabel(s string) (int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	var pm, am bool
	switch {
	case strings.HasSuffix(s, "pm"):
		pm = true
		s = strings.TrimSuffix(s, "pm")
	case strings.HasSuffix(s, "am"):
		am = true
		s = strings.TrimSuffix(s, "am")
	}

	h, m := 0, 0
	if i := strings.Index(s, ":"); i >= 0 {
		var err error
		if h, err = strconv.Atoi(s[:i]); err != nil {
			return 0, err
		}
		if m, err = strconv.Atoi(s[i+1:]); err != nil {
			return 0, err
		}
	} else {
		var err error
		if h, err = strconv.Atoi(s); err != nil {
			return 0, err
		}
	}
	if h < 0 || h > 24 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value out of range: %q", s)
	}

	if am && h == 12 {
		h = 0
	}
	if pm && h != 12 {
		h += 12
	}
	return h*60 + m, nil
}

// ParseHHMM converts "HH:MM" to minutes from midnight
func ParseHHMM(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed time %q", s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time out of range %q", s)
	}
	return h*60 + m, nil
}

// FormatMinutes renders minutes from midnight as "HH:MM"
func FormatMinutes(t int) string {
	return fmt.Sprintf("%02d:%02d", t/60, t%60)
}

// WeekdayName returns the weekday key used by catalog open hours
func WeekdayName(d time.Time) string {
	return d.Weekday().String()
}

// intersect clips w to bounds, returning false when nothing remains
func intersect(w Window, bounds Window) (Window, bool) {
	open := maxInt(w.Open, bounds.Open)
	close := minInt(w.Close, bounds.Close)
	if open >= close {
		return Window{}, false
	}
	return Window{Open: open, Close: close}, true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
