package locale

import (
	"strings"
	"time"
)

// patterns holds Go reference layouts per base language. Long dates are
// formatted with English month names which are then swapped for the
// localized name.
type patterns struct {
	shortDate      string
	longDateLayout string
	shortTime      string
	longTime       string
	currency       string
	months         [12]string
}

func (p patterns) longDate(t time.Time) string {
	s := t.Format(p.longDateLayout)
	return strings.Replace(s, t.Month().String(), p.months[t.Month()-1], 1)
}

var englishMonths = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var defaultPatterns = patterns{
	shortDate:      "2006-01-02",
	longDateLayout: "2 January 2006",
	shortTime:      "15:04",
	longTime:       "15:04:05",
	currency:       "{sym} {num}",
	months:         englishMonths,
}

var knownPatterns = map[string]patterns{
	"en": {
		shortDate:      "1/2/06",
		longDateLayout: "January 2, 2006",
		shortTime:      "3:04 PM",
		longTime:       "3:04:05 PM",
		currency:       "{sym}{num}",
		months:         englishMonths,
	},
	"de": {
		shortDate:      "02.01.06",
		longDateLayout: "2. January 2006",
		shortTime:      "15:04",
		longTime:       "15:04:05",
		currency:       "{num} {sym}",
		months: [12]string{
			"Januar", "Februar", "März", "April", "Mai", "Juni",
			"Juli", "August", "September", "Oktober", "November", "Dezember",
		},
	},
	"fr": {
		shortDate:      "02/01/2006",
		longDateLayout: "2 January 2006",
		shortTime:      "15:04",
		longTime:       "15:04:05",
		currency:       "{num} {sym}",
		months: [12]string{
			"janvier", "février", "mars", "avril", "mai", "juin",
			"juillet", "août", "septembre", "octobre", "novembre", "décembre",
		},
	},
	"nl": {
		shortDate:      "02-01-2006",
		longDateLayout: "2 January 2006",
		shortTime:      "15:04",
		longTime:       "15:04:05",
		currency:       "{sym} {num}",
		months: [12]string{
			"januari", "februari", "maart", "april", "mei", "juni",
			"juli", "augustus", "september", "oktober", "november", "december",
		},
	},
	"es": {
		shortDate:      "2/1/06",
		longDateLayout: "2 de January de 2006",
		shortTime:      "15:04",
		longTime:       "15:04:05",
		currency:       "{num} {sym}",
		months: [12]string{
			"enero", "febrero", "marzo", "abril", "mayo", "junio",
			"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
		},
	},
	"it": {
		shortDate:      "02/01/06",
		longDateLayout: "2 January 2006",
		shortTime:      "15:04",
		longTime:       "15:04:05",
		currency:       "{num} {sym}",
		months: [12]string{
			"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno",
			"luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre",
		},
	},
}

func patternsFor(base string) patterns {
	if p, ok := knownPatterns[base]; ok {
		return p
	}
	return defaultPatterns
}
