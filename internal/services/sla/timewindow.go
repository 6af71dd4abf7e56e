// Package sla implements the SLA compliance and escalation engine: milestone
// evaluation against configured thresholds, the dealer-advance-payment
// escalation ladder, and the batch orchestrator the scheduler invokes.
package sla

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParsePickupDeadline converts the expected pickup date and its 12-hour-clock
// window ("12:00 PM - 2:00 PM") into the absolute deadline: the end of the
// window on that calendar date. Format errors are returned, never panicked;
// callers treat them as a data-quality defect and skip the milestone.
func ParsePickupDeadline(date, window string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid pickup date %q: %w", date, err)
	}

	parts := strings.Split(window, "-")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid pickup window %q: want \"<start> - <end>\"", window)
	}

	hour, minute, err := parseClockTime(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid pickup window %q: %w", window, err)
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}

// parseClockTime parses a 12-hour clock value like "2:00 PM" into 24-hour
// components. 12 AM maps to 0, 12 PM stays 12, any other PM hour gains 12.
func parseClockTime(s string) (hour, minute int, err error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("time %q missing AM/PM suffix", s)
	}

	meridiem := strings.ToUpper(fields[1])
	if meridiem != "AM" && meridiem != "PM" {
		return 0, 0, fmt.Errorf("time %q has unknown suffix %q", s, fields[1])
	}

	hm := strings.Split(fields[0], ":")
	if len(hm) != 2 {
		return 0, 0, fmt.Errorf("time %q is not h:mm", s)
	}
	hour, err = strconv.Atoi(hm[0])
	if err != nil {
		return 0, 0, fmt.Errorf("time %q has non-numeric hour", s)
	}
	minute, err = strconv.Atoi(hm[1])
	if err != nil {
		return 0, 0, fmt.Errorf("time %q has non-numeric minute", s)
	}
	if hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q out of range", s)
	}

	switch {
	case hour == 12 && meridiem == "AM":
		hour = 0
	case hour != 12 && meridiem == "PM":
		hour += 12
	}
	return hour, minute, nil
}
