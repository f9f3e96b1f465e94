package pkpass

// BarcodeFormat is the symbology of a barcode. Unknown formats are
// FormatInvalid.
type BarcodeFormat int

const (
	FormatInvalid BarcodeFormat = iota
	FormatQR
	FormatPDF417
	FormatAztec
	FormatCode128
)

var barcodeFormats = map[string]BarcodeFormat{
	"PKBarcodeFormatQR":      FormatQR,
	"PKBarcodeFormatPDF417":  FormatPDF417,
	"PKBarcodeFormatAztec":   FormatAztec,
	"PKBarcodeFormatCode128": FormatCode128,
}

func (f BarcodeFormat) String() string {
	switch f {
	case FormatQR:
		return "qr"
	case FormatPDF417:
		return "pdf417"
	case FormatAztec:
		return "aztec"
	case FormatCode128:
		return "code128"
	default:
		return "invalid"
	}
}

type Barcode struct {
	obj object
	doc *Document
}

func (b Barcode) Format() BarcodeFormat {
	return barcodeFormats[b.obj.str("format")]
}

// Message is the payload encoded in the barcode.
func (b Barcode) Message() string {
	return b.obj.str("message")
}

// MessageEncoding is the IANA name of the text encoding of Message.
func (b Barcode) MessageEncoding() string {
	return b.obj.str("messageEncoding")
}

// AlternativeText is the translated text shown near the barcode.
func (b Barcode) AlternativeText() string {
	text := b.obj.str("altText")
	if b.doc == nil {
		return text
	}
	return b.doc.message(text)
}
