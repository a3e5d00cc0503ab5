// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Madrid is loaded once; the parser and freshness filter compare civil
// dates in this zone (DESIGN.md open-question resolution).
var Madrid = mustLoadMadrid()

func mustLoadMadrid() *time.Location {
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		return time.UTC
	}
	return loc
}

// spanishMonths maps written Spanish month names/abbreviations to month
// numbers, grounded on original_source's SPANISH_MONTHS table.
var spanishMonths = map[string]int{
	"enero": 1, "ene": 1, "en": 1,
	"febrero": 2, "feb": 2,
	"marzo": 3, "mar": 3,
	"abril": 4, "abr": 4, "ab": 4,
	"mayo": 5, "may": 5,
	"junio": 6, "jun": 6,
	"julio": 7, "jul": 7,
	"agosto": 8, "ago": 8, "ag": 8,
	"septiembre": 9, "sep": 9, "sept": 9,
	"octubre": 10, "oct": 10,
	"noviembre": 11, "nov": 11,
	"diciembre": 12, "dic": 12,
}

var (
	reDayMonthNameYear = regexp.MustCompile(`(?i)(\d{1,2})\s*(?:de\s*)?([a-záéíóúñ]+)\s*(?:de\s*)?(\d{4})`)
	reDMY              = regexp.MustCompile(`(\d{1,2})[/\-](\d{1,2})[/\-](\d{4})`)
	reISO              = regexp.MustCompile(`(\d{4})[/\-](\d{1,2})[/\-](\d{1,2})`)
	reDayMonthName     = regexp.MustCompile(`(?i)(\d{1,2})\s*(?:de\s*)?([a-záéíóúñ]+)(?:\s|$)`)

	reTime24     = regexp.MustCompile(`(\d{1,2}):(\d{2})(?:\s*h)?\b`)
	reTimeHhMM   = regexp.MustCompile(`(?i)(\d{1,2})\s*h\s*(\d{2})?`)
	reTimeAMPM   = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(am|pm)`)
)

// ParseDate parses a free-form Spanish or ISO date string into a civil date
// in Madrid time. Supports "15 de enero de 2025", "15/01/2025", and
// "2025-01-15" (spec §4.4).
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if m := reISO.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return civilDate(y, mo, d)
	}
	if m := reDMY.FindStringSubmatch(s); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		return civilDate(y, mo, d)
	}
	if m := reDayMonthNameYear.FindStringSubmatch(s); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, ok := spanishMonths[strings.ToLower(m[2])]
		if !ok {
			return time.Time{}, false
		}
		y, _ := strconv.Atoi(m[3])
		return civilDate(y, mo, d)
	}
	if m := reDayMonthName.FindStringSubmatch(s); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, ok := spanishMonths[strings.ToLower(m[2])]
		if !ok {
			return time.Time{}, false
		}
		return civilDate(time.Now().In(Madrid).Year(), mo, d)
	}
	return time.Time{}, false
}

func civilDate(y, mo, d int) (time.Time, bool) {
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, Madrid), true
}

// ParseTime parses "19:30", "19:30h", "19h30", or "7:30 pm" into a
// time-of-day. "00:00" parses as 0, 0, true; CombineDateTime then treats
// it as "time unknown" rather than midnight (DESIGN.md open-question
// resolution) — callers should only invoke ParseTime when the source
// explicitly supplied a time field.
func ParseTime(s string) (hour, minute int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, false
	}

	if m := reTimeAMPM.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		if strings.EqualFold(m[3], "pm") && h < 12 {
			h += 12
		}
		if strings.EqualFold(m[3], "am") && h == 12 {
			h = 0
		}
		return h, mi, true
	}
	if m := reTime24.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		return h, mi, true
	}
	if m := reTimeHhMM.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi := 0
		if m[2] != "" {
			mi, _ = strconv.Atoi(m[2])
		}
		return h, mi, true
	}
	return 0, 0, false
}

// CombineDateTime builds a *time.Time from a civil date and an hour/minute,
// or nil when hour/minute were never parsed (spec's "midnight means
// unknown" resolution: a literal 00:00 with no other evidence stays nil).
func CombineDateTime(date time.Time, hour, minute int, hadTime bool) *time.Time {
	if !hadTime {
		return nil
	}
	if hour == 0 && minute == 0 {
		return nil
	}
	t := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, Madrid)
	return &t
}
