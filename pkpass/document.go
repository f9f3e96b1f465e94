// Package pkpass reads Apple Wallet pass bundles (.pkpass) and multi-pass
// bundles (.pkpasses).
//
// A Document is created from the raw bundle bytes and stays read-only
// afterwards. Accessors read straight from the parsed pass.json and never
// fail: absent or malformed values come back as zero values, NaN or the
// documented default. Translations and images are loaded lazily from the
// bundle on first use and cached for the lifetime of the Document.
//
// Entities returned by a Document (Field, Barcode, Location) are views into
// the Document's manifest and must not be used once the Document is dropped.
package pkpass

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"go-pkpass/archive"
	"go-pkpass/images"
	"go-pkpass/locale"
)

const (
	manifestFile           = "pass.json"
	maxFormatVersion       = 1
	defaultMaximumDistance = 500
)

// Archive is the read-only container a Document is loaded from.
type Archive interface {
	Entries() []string
	Has(path string) bool
	IsDir(path string) bool
	ReadFile(path string) ([]byte, error)
}

// Locale provides the UI language preferences and the rendering rules used
// for translations and display strings.
type Locale interface {
	UILanguages() []string
	Location() *time.Location
	Direction() locale.Direction
	FormatDate(t time.Time, style locale.Style) string
	FormatDateTime(t time.Time, style locale.Style) string
	FormatNumber(v float64) string
	FormatCurrency(v float64, code string) string
}

// ImageDecoder turns the bytes of an image asset into pixels.
type ImageDecoder interface {
	Decode(data []byte) (image.Image, error)
}

type options struct {
	locale  Locale
	decoder ImageDecoder
}

// Option configures how a Document is loaded.
type Option func(*options)

// WithLocale sets the locale used for translations and display strings.
// Defaults to locale.FromEnvironment().
func WithLocale(l Locale) Option {
	return func(o *options) {
		if l != nil {
			o.locale = l
		}
	}
}

// WithImageDecoder replaces the PNG decoder used for image assets.
func WithImageDecoder(d ImageDecoder) Option {
	return func(o *options) {
		if d != nil {
			o.decoder = d
		}
	}
}

// Type is the kind of pass, determined by the pass data structure present in
// pass.json.
type Type int

const (
	TypeBoardingPass Type = iota
	TypeCoupon
	TypeEventTicket
	TypeGeneric
	TypeStoreCard
)

// passTypeKeys is indexed by Type and doubles as the detection priority.
var passTypeKeys = [...]string{"boardingPass", "coupon", "eventTicket", "generic", "storeCard"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(passTypeKeys) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return passTypeKeys[t]
}

// Document is a loaded pass bundle.
type Document struct {
	passType Type
	manifest object
	raw      []byte
	archive  Archive
	locale   Locale
	decoder  ImageDecoder
	boarding *BoardingPass

	messagesOnce sync.Once
	messages     map[string]string

	imageMu sync.Mutex
	images  map[imageKey]cachedImage
}

// FromBytes loads a pass bundle from memory. The data is copied.
func FromBytes(data []byte, opts ...Option) (*Document, error) {
	raw := bytes.Clone(data)
	arc, err := archive.Open(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchive, err)
	}
	return fromArchive(arc, raw, opts...)
}

// FromFile loads the pass bundle stored at path.
func FromFile(path string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Failed to open pass file", "path", path, "error", err)
		return nil, fmt.Errorf("failed to read pass file: %w", err)
	}
	return FromBytes(data, opts...)
}

// FromReader loads a pass bundle by reading r to EOF.
func FromReader(r io.Reader, opts ...Option) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read pass data: %w", err)
	}
	return FromBytes(data, opts...)
}

func fromArchive(arc Archive, raw []byte, opts ...Option) (*Document, error) {
	o := options{decoder: images.PNGDecoder{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.locale == nil {
		o.locale = locale.FromEnvironment()
	}

	if !arc.Has(manifestFile) {
		return nil, ErrMissingManifest
	}
	data, err := arc.ReadFile(manifestFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingManifest, err)
	}

	manifest, err := parseManifest(data)
	if err != nil {
		return nil, err
	}

	if v, ok := manifest.integer("formatVersion"); ok && v > maxFormatVersion {
		slog.Warn("pass.json has unsupported format version", "format_version", v)
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	passType, ok := detectType(manifest)
	if !ok {
		slog.Warn("pkpass file has no pass data structure")
		return nil, ErrMissingPassData
	}

	d := &Document{
		passType: passType,
		manifest: manifest,
		raw:      raw,
		archive:  arc,
		locale:   o.locale,
		decoder:  o.decoder,
		images:   make(map[imageKey]cachedImage),
	}
	if passType == TypeBoardingPass {
		d.boarding = &BoardingPass{Document: d}
	}

	slog.Debug("Pass loaded", "type", passType, "serial_number", d.SerialNumber())
	return d, nil
}

func detectType(manifest object) (Type, bool) {
	for i, key := range passTypeKeys {
		if manifest.has(key) {
			return Type(i), true
		}
	}
	return 0, false
}

func (d *Document) Type() Type { return d.passType }

// BoardingPass returns the boarding pass view of d, if d is a boarding pass.
func (d *Document) BoardingPass() (*BoardingPass, bool) {
	return d.boarding, d.boarding != nil
}

// RawData returns a copy of the bundle bytes the Document was loaded from.
func (d *Document) RawData() []byte {
	return bytes.Clone(d.raw)
}

// passData is the type specific structure (e.g. "boardingPass").
func (d *Document) passData() object {
	return d.manifest.obj(passTypeKeys[d.passType])
}

func (d *Document) Description() string {
	return d.manifest.str("description")
}

func (d *Document) OrganizationName() string {
	return d.manifest.str("organizationName")
}

func (d *Document) PassTypeIdentifier() string {
	return d.manifest.str("passTypeIdentifier")
}

func (d *Document) SerialNumber() string {
	return d.manifest.str("serialNumber")
}

func (d *Document) GroupingIdentifier() string {
	return d.manifest.str("groupingIdentifier")
}

// LogoText returns the translated logo text.
func (d *Document) LogoText() string {
	return d.message(d.manifest.str("logoText"))
}

// ExpirationDate returns the zero time if the pass has no valid expiration date.
func (d *Document) ExpirationDate() time.Time {
	t, _ := parseDateTime(d.manifest.str("expirationDate"), d.locale.Location())
	return t
}

// RelevantDate returns the zero time if the pass has no valid relevant date.
func (d *Document) RelevantDate() time.Time {
	t, _ := parseDateTime(d.manifest.str("relevantDate"), d.locale.Location())
	return t
}

// IsVoided is true only for the exact string "true"; a JSON boolean does not count.
func (d *Document) IsVoided() bool {
	return d.manifest.str("voided") == "true"
}

// MaximumDistance is the distance in meters to any of the pass locations
// before the pass becomes relevant.
func (d *Document) MaximumDistance() int {
	if v, ok := d.manifest.integer("maxDistance"); ok {
		return v
	}
	return defaultMaximumDistance
}

func (d *Document) Locations() []Location {
	a := d.manifest.arr("locations")
	locs := make([]Location, 0, len(a))
	for _, v := range a {
		locs = append(locs, Location{obj: toObject(v)})
	}
	return locs
}

// Barcodes returns the "barcodes" array, or the legacy single "barcode" when
// the array is empty.
func (d *Document) Barcodes() []Barcode {
	a := d.manifest.arr("barcodes")
	codes := make([]Barcode, 0, len(a))
	for _, v := range a {
		codes = append(codes, Barcode{obj: toObject(v), doc: d})
	}

	if len(codes) == 0 {
		if bc := d.manifest.obj("barcode"); len(bc) > 0 {
			codes = append(codes, Barcode{obj: bc, doc: d})
		}
	}
	return codes
}

func (d *Document) AuthenticationToken() string {
	return d.manifest.str("authenticationToken")
}

// WebServiceURL returns nil when webServiceURL is absent or not an absolute URL.
func (d *Document) WebServiceURL() *url.URL {
	s := strings.TrimSpace(d.manifest.str("webServiceURL"))
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return u
}

// PassUpdateURL is the URL the latest version of the pass can be fetched
// from, or nil if the pass has no valid web service URL.
func (d *Document) PassUpdateURL() *url.URL {
	u := d.WebServiceURL()
	if u == nil {
		return nil
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/v1/passes/" + d.PassTypeIdentifier() + "/" + d.SerialNumber()
	u.RawPath = ""
	return u
}
