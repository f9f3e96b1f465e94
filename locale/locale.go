// Package locale renders dates, times, numbers and currency amounts for a
// language and exposes the preferred UI language list used to pick
// translation catalogs.
//
// A Locale is immutable and safe for concurrent use. Nothing in this package
// reads process-wide state except FromEnvironment.
package locale

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Style selects between the compact and the spelled-out rendering.
type Style int

const (
	ShortFormat Style = iota
	LongFormat
)

// Direction is the base text layout direction of a language.
type Direction int

const (
	LeftToRight Direction = iota
	RightToLeft
)

var rtlLanguages = map[string]bool{
	"ar": true, "dv": true, "fa": true, "he": true,
	"ps": true, "ur": true, "yi": true,
}

type Locale struct {
	tag         language.Tag
	uiLanguages []string
	location    *time.Location
	printer     *message.Printer
	patterns    patterns
	direction   Direction
}

// Option configures a Locale.
type Option func(*Locale)

// WithUILanguages sets the preferred UI languages, most preferred first.
// Without it the list contains only the locale's own tag.
func WithUILanguages(langs ...string) Option {
	return func(l *Locale) {
		l.uiLanguages = append([]string(nil), langs...)
	}
}

// WithLocation sets the zone used for timestamps that carry no offset.
func WithLocation(loc *time.Location) Option {
	return func(l *Locale) {
		if loc != nil {
			l.location = loc
		}
	}
}

func New(tag language.Tag, opts ...Option) *Locale {
	l := &Locale{
		tag:      tag,
		location: time.Local,
		printer:  message.NewPrinter(tag),
	}
	base, _ := tag.Base()
	l.patterns = patternsFor(base.String())
	if rtlLanguages[base.String()] {
		l.direction = RightToLeft
	}
	for _, opt := range opts {
		opt(l)
	}
	if len(l.uiLanguages) == 0 {
		l.uiLanguages = []string{tag.String()}
	}
	return l
}

// Parse accepts BCP 47 tags as well as POSIX locale names such as
// "fr_FR.UTF-8" or "de_DE@euro".
func Parse(name string, opts ...Option) (*Locale, error) {
	tag, err := parseTag(name)
	if err != nil {
		return nil, err
	}
	return New(tag, opts...), nil
}

// FromEnvironment builds a Locale from LC_ALL, LC_MESSAGES and LANG, with the
// UI language list taken from LANGUAGE when set. Unset or "C" locales fall
// back to English.
func FromEnvironment() *Locale {
	name := firstEnv("LC_ALL", "LC_MESSAGES", "LANG")
	tag, err := parseTag(name)
	if err != nil {
		tag = language.English
	}

	var langs []string
	for _, l := range strings.Split(os.Getenv("LANGUAGE"), ":") {
		if t, err := parseTag(l); err == nil {
			langs = append(langs, t.String())
		}
	}
	if len(langs) == 0 {
		langs = []string{tag.String()}
	}
	return New(tag, WithUILanguages(langs...))
}

// FromAcceptLanguage builds a Locale from an HTTP Accept-Language header.
// The UI language list follows the header's quality order; fallback is used
// when the header is empty or unparsable.
func FromAcceptLanguage(header string, fallback language.Tag, opts ...Option) *Locale {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return New(fallback, opts...)
	}
	langs := make([]string, 0, len(tags))
	for _, t := range tags {
		langs = append(langs, t.String())
	}
	return New(tags[0], append([]Option{WithUILanguages(langs...)}, opts...)...)
}

func (l *Locale) Tag() language.Tag { return l.tag }

// UILanguages returns the preferred UI languages, most preferred first.
func (l *Locale) UILanguages() []string {
	return append([]string(nil), l.uiLanguages...)
}

// Location is the zone applied to timestamps without an explicit offset.
func (l *Locale) Location() *time.Location { return l.location }

func (l *Locale) Direction() Direction { return l.direction }

// FormatDate renders the date part of t in t's own zone.
func (l *Locale) FormatDate(t time.Time, style Style) string {
	if style == LongFormat {
		return l.patterns.longDate(t)
	}
	return t.Format(l.patterns.shortDate)
}

// FormatDateTime renders date and time of t in t's own zone.
func (l *Locale) FormatDateTime(t time.Time, style Style) string {
	timeLayout := l.patterns.shortTime
	if style == LongFormat {
		timeLayout = l.patterns.longTime
	}
	return l.FormatDate(t, style) + " " + t.Format(timeLayout)
}

func (l *Locale) FormatNumber(v float64) string {
	return l.printer.Sprint(number.Decimal(v))
}

// FormatCurrency renders v as an amount of the ISO 4217 currency code.
// Unknown codes are rendered as the plain number followed by the code.
func (l *Locale) FormatCurrency(v float64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%s %s", l.FormatNumber(v), strings.ToUpper(strings.TrimSpace(code)))
	}
	scale, _ := currency.Standard.Rounding(unit)
	amount := l.printer.Sprint(number.Decimal(v, number.Scale(scale)))
	symbol := l.printer.Sprint(currency.Symbol(unit))

	out := strings.ReplaceAll(l.patterns.currency, "{num}", amount)
	return strings.ReplaceAll(out, "{sym}", symbol)
}

func parseTag(name string) (language.Tag, error) {
	name = strings.TrimSpace(name)
	if idx := strings.IndexAny(name, ".@"); idx >= 0 {
		name = name[:idx]
	}
	if name == "" || name == "C" || name == "POSIX" {
		return language.Und, fmt.Errorf("no usable locale in %q", name)
	}
	tag, err := language.Parse(strings.ReplaceAll(name, "_", "-"))
	if err != nil {
		return language.Und, fmt.Errorf("failed to parse locale %q: %w", name, err)
	}
	return tag, nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
