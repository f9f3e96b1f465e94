package pkpass

import (
	"bytes"
	"log/slog"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseStrings parses a .strings translation catalog made of
// `"key" = "value";` records. It returns nil when no record could be read.
//
// Catalogs are supposed to be UTF-16BE but plenty of producers write UTF-8,
// so the encoding is guessed from the first byte. Scanning stops at the first
// malformed or truncated record; records read before that are kept.
func ParseStrings(data []byte) map[string]string {
	if len(data) < 4 {
		return nil
	}

	catalog := []rune(decodeCatalog(data))
	messages := make(map[string]string)

	idx := 0
	for idx < len(catalog) {
		keyBegin := indexUnescaped(catalog, '"', idx) + 1
		if keyBegin < 1 {
			break
		}
		keyEnd := indexUnescaped(catalog, '"', keyBegin)
		if keyEnd < 0 {
			break
		}

		valueBegin := indexUnescaped(catalog, '"', keyEnd+1) + 1
		if valueBegin < 1 {
			break
		}
		valueEnd := indexUnescaped(catalog, '"', valueBegin)
		if valueEnd < 0 {
			break
		}

		key := string(catalog[keyBegin:keyEnd])
		messages[key] = unquote(catalog[valueBegin:valueEnd])
		idx = valueEnd + 1
	}

	if len(messages) == 0 {
		return nil
	}
	return messages
}

func decodeCatalog(data []byte) string {
	if bytes.HasPrefix(data, utf8BOM) {
		return string(data[len(utf8BOM):])
	}
	if strings.IndexByte(asciiPunctuation, data[0]) >= 0 {
		return string(data)
	}

	// UseBOM honours a byte order mark and strips it, big endian otherwise
	decoded, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Bytes(data)
	if err != nil {
		slog.Debug("Failed to decode UTF-16 catalog", "error", err)
		return ""
	}
	return string(decoded)
}

// indexUnescaped returns the index of the first c at or after start that is
// not preceded by a backslash, or -1.
func indexUnescaped(s []rune, c rune, start int) int {
	for i := start; i < len(s); i++ {
		switch s[i] {
		case c:
			return i
		case '\\':
			i++
		}
	}
	return -1
}

// unquote resolves \r, \n and \\. Any other escape is kept verbatim.
func unquote(s []rune) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			b.WriteRune(c)
			continue
		}
		i++
		switch next := s[i]; next {
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteRune(c)
			b.WriteRune(next)
		}
	}
	return b.String()
}
