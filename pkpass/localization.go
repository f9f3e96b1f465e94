package pkpass

import (
	"log/slog"
	"strings"
)

const (
	catalogFile     = "pass.strings"
	fallbackCatalog = "en"
)

// catalogLanguage reduces a language tag such as "de-CH" or "pt_BR" to the
// base language used for .lproj directory names.
func catalogLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if idx := strings.IndexAny(tag, "-_"); idx >= 0 {
		tag = tag[:idx]
	}
	return tag
}

// loadCatalog returns the translations of the first preferred language that
// ships a non-empty catalog, then English. nil means no catalog was found.
func loadCatalog(arc Archive, preferred []string) map[string]string {
	tried := make(map[string]bool, len(preferred)+1)
	for _, tag := range append(append([]string(nil), preferred...), fallbackCatalog) {
		lang := catalogLanguage(tag)
		if lang == "" || tried[lang] {
			continue
		}
		tried[lang] = true

		if messages := loadCatalogFor(arc, lang); messages != nil {
			slog.Debug("Loaded translation catalog", "language", lang, "messages", len(messages))
			return messages
		}
	}
	slog.Debug("No translation catalog found", "preferred", preferred)
	return nil
}

func loadCatalogFor(arc Archive, lang string) map[string]string {
	dir := lang + ".lproj"
	if !arc.IsDir(dir) {
		return nil
	}
	data, err := arc.ReadFile(dir + "/" + catalogFile)
	if err != nil {
		slog.Debug("Translation directory without catalog", "directory", dir, "error", err)
		return nil
	}
	return ParseStrings(data)
}

// message returns the translation of key, or key itself.
func (d *Document) message(key string) string {
	d.messagesOnce.Do(func() {
		d.messages = loadCatalog(d.archive, d.locale.UILanguages())
	})
	if v, ok := d.messages[key]; ok {
		return v
	}
	return key
}
