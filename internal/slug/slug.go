// Package slug строит адреса документов из заголовков.
package slug

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxLength = 120

// Make превращает заголовок в ASCII-slug: "Relatório Anual 2024" -> "relatorio-anual-2024"
func Make(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}

	s := strings.TrimRight(b.String(), "-")
	if len(s) > maxLength {
		s = strings.TrimRight(s[:maxLength], "-")
	}
	if s == "" {
		s = "document"
	}
	return s
}

// Disambiguate добавляет числовой суффикс, если base уже занят: base, base-2, base-3...
func Disambiguate(base string, taken []string) string {
	used := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		used[t] = struct{}{}
	}
	if _, ok := used[base]; !ok {
		return base
	}
	for i := 2; ; i++ {
		candidate := base + "-" + strconv.Itoa(i)
		if _, ok := used[candidate]; !ok {
			return candidate
		}
	}
}
