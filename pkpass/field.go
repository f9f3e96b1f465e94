package pkpass

import (
	"strconv"
	"strings"
	"time"

	"go-pkpass/locale"
)

// Field group keys inside the pass data structure, in concatenation order.
var fieldGroups = [...]string{"auxiliaryFields", "backFields", "headerFields", "primaryFields", "secondaryFields"}

// ValueKind is the type of a field value.
type ValueKind int

const (
	NoValue ValueKind = iota
	TextValue
	DateTimeValue
	NumberValue
)

func (k ValueKind) String() string {
	switch k {
	case TextValue:
		return "text"
	case DateTimeValue:
		return "date_time"
	case NumberValue:
		return "number"
	default:
		return "none"
	}
}

// Value is the typed value of a field. Only the member matching Kind is set.
type Value struct {
	Kind   ValueKind
	Text   string
	Time   time.Time
	Number float64
}

// TextAlignment of a field on the pass front.
type TextAlignment int

const (
	AlignLeft TextAlignment = iota
	AlignCenter
	AlignRight
)

func (a TextAlignment) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

// Field is a labeled value of one of the five field groups.
type Field struct {
	obj object
	doc *Document
}

func (d *Document) fieldGroup(group string) []Field {
	a := d.passData().arr(group)
	fields := make([]Field, 0, len(a))
	for _, v := range a {
		fields = append(fields, Field{obj: toObject(v), doc: d})
	}
	return fields
}

func (d *Document) AuxiliaryFields() []Field { return d.fieldGroup("auxiliaryFields") }
func (d *Document) BackFields() []Field      { return d.fieldGroup("backFields") }
func (d *Document) HeaderFields() []Field    { return d.fieldGroup("headerFields") }
func (d *Document) PrimaryFields() []Field   { return d.fieldGroup("primaryFields") }
func (d *Document) SecondaryFields() []Field { return d.fieldGroup("secondaryFields") }

// Fields returns the auxiliary, back, header, primary and secondary fields,
// in that order.
func (d *Document) Fields() []Field {
	var fields []Field
	for _, group := range fieldGroups {
		fields = append(fields, d.fieldGroup(group)...)
	}
	return fields
}

// Field returns the first field with the given key, searching the groups in
// the order of Fields.
func (d *Document) Field(key string) (Field, bool) {
	for _, group := range fieldGroups {
		for _, v := range d.passData().arr(group) {
			if obj := toObject(v); obj.str("key") == key {
				return Field{obj: obj, doc: d}, true
			}
		}
	}
	return Field{}, false
}

// FieldsByKey maps field keys to fields. On duplicate keys the field Field
// would return wins.
func (d *Document) FieldsByKey() map[string]Field {
	fields := make(map[string]Field)
	for _, f := range d.Fields() {
		if _, ok := fields[f.Key()]; !ok {
			fields[f.Key()] = f
		}
	}
	return fields
}

// Key identifies the field, it is not meant for display.
func (f Field) Key() string {
	return f.obj.str("key")
}

func (f Field) Label() string {
	return f.localize(f.obj.str("label"))
}

func (f Field) CurrencyCode() string {
	return f.obj.str("currencyCode")
}

func (f Field) localize(s string) string {
	if f.doc == nil {
		return s
	}
	return f.doc.message(s)
}

func (f Field) location() *time.Location {
	if f.doc == nil {
		return time.Local
	}
	return f.doc.locale.Location()
}

// rawValue is attributedValue if it holds something, value otherwise.
func (f Field) rawValue() any {
	switch v := f.obj["attributedValue"].(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return v
	}
	return f.obj["value"]
}

// Value resolves the field value. Strings are translated first and become
// a date-time value if they are ISO 8601 timestamps.
func (f Field) Value() Value {
	switch v := f.rawValue().(type) {
	case string:
		text := f.localize(v)
		if t, ok := parseDateTime(text, f.location()); ok {
			return Value{Kind: DateTimeValue, Time: t}
		}
		return Value{Kind: TextValue, Text: text}
	case float64:
		return Value{Kind: NumberValue, Number: v}
	}
	return Value{}
}

// ValueDisplayString renders the value for display in the document locale.
func (f Field) ValueDisplayString() string {
	v := f.Value()
	switch v.Kind {
	case DateTimeValue:
		if f.doc == nil {
			return v.Time.Format(time.RFC3339)
		}
		return f.formatDateTime(v.Time)
	case NumberValue:
		if f.doc == nil {
			return strconv.FormatFloat(v.Number, 'f', -1, 64)
		}
		if code := f.CurrencyCode(); code != "" {
			return f.doc.locale.FormatCurrency(v.Number, code)
		}
		return f.doc.locale.FormatNumber(v.Number)
	case TextValue:
		return strings.TrimSpace(v.Text)
	}
	return ""
}

func (f Field) formatDateTime(t time.Time) string {
	dateStyle := f.obj.str("dateStyle")
	style := locale.ShortFormat
	if dateStyle == "PKDateStyleLong" || dateStyle == "PKDateStyleFull" {
		style = locale.LongFormat
	}

	timeStyle, hasTimeStyle := f.obj["timeStyle"].(string)
	midnight := t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
	if timeStyle == "PKDateStyleNone" || (!hasTimeStyle && dateStyle != "" && midnight) {
		return f.doc.locale.FormatDate(t, style)
	}
	return f.doc.locale.FormatDateTime(t, style)
}

// ChangeMessage returns the translated change message with every "%@"
// replaced by the display string.
func (f Field) ChangeMessage() string {
	msg := f.localize(f.obj.str("changeMessage"))
	if !strings.Contains(msg, "%@") {
		return msg
	}
	return strings.ReplaceAll(msg, "%@", f.ValueDisplayString())
}

// TextAlignment resolves natural alignment from the locale writing direction.
func (f Field) TextAlignment() TextAlignment {
	switch f.obj.str("textAlignment") {
	case "PKTextAlignmentLeft":
		return AlignLeft
	case "PKTextAlignmentCenter":
		return AlignCenter
	case "PKTextAlignmentRight":
		return AlignRight
	}
	if f.doc != nil && f.doc.locale.Direction() == locale.RightToLeft {
		return AlignRight
	}
	return AlignLeft
}
