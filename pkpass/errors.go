package pkpass

import (
	"errors"
	"fmt"
)

// Construction errors returned by FromBytes, FromFile and FromReader. Use
// errors.Is to classify a failure.
var (
	ErrArchive            = errors.New("not a valid pass archive")
	ErrMissingManifest    = errors.New("pass.json not found")
	ErrManifestParse      = errors.New("invalid pass.json")
	ErrUnsupportedVersion = errors.New("unsupported pass format version")
	ErrMissingPassData    = errors.New("no pass data structure")
)

// ManifestParseError reports where the first parse of pass.json failed. It
// describes the document as given, not the repaired one.
type ManifestParseError struct {
	Offset int64
	Msg    string
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("%s: offset %d: %s", ErrManifestParse, e.Offset, e.Msg)
}

func (e *ManifestParseError) Is(target error) bool {
	return target == ErrManifestParse
}
