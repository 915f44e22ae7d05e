package preprocess

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/sentences"
)

// abbreviations lists, per language, lowercase tokens ending in a period that do not end a sentence.
var abbreviations = map[string]map[string]struct{}{
	LanguagePortuguese: set(
		"sr.", "sra.", "srta.", "dr.", "dra.", "prof.", "profa.", "eng.", "exmo.", "exma.",
		"av.", "etc.", "ex.", "p.", "pág.", "págs.", "cap.", "vol.", "núm.", "nº.", "n.",
		"ltda.", "cia.", "s.a.", "obs.", "aprox.", "tel.", "jan.", "fev.", "mar.", "abr.",
		"mai.", "jun.", "jul.", "ago.", "set.", "out.", "nov.", "dez.",
	),
	LanguageEnglish: set(
		"mr.", "mrs.", "ms.", "dr.", "prof.", "sr.", "jr.", "st.", "vs.", "etc.", "e.g.",
		"i.e.", "inc.", "ltd.", "co.", "corp.", "no.", "fig.", "approx.", "jan.", "feb.",
		"mar.", "apr.", "jun.", "jul.", "aug.", "sep.", "sept.", "oct.", "nov.", "dec.",
	),
}

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// splitSentences segments text with UAX #29 sentence boundaries and then re-joins
// segments that end in a known abbreviation of lang. Returned sentences are trimmed.
func splitSentences(text, lang string) []string {
	abbr := abbreviations[lang]

	var out []string
	var pending strings.Builder

	it := sentences.FromString(text)
	for it.Next() {
		pending.WriteString(it.Value())

		if endsWithAbbreviation(pending.String(), abbr) {
			continue
		}
		if s := strings.TrimSpace(pending.String()); s != "" {
			out = append(out, s)
		}
		pending.Reset()
	}
	if s := strings.TrimSpace(pending.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func endsWithAbbreviation(segment string, abbr map[string]struct{}) bool {
	if len(abbr) == 0 {
		return false
	}
	fields := strings.Fields(segment)
	if len(fields) == 0 {
		return false
	}
	_, ok := abbr[strings.ToLower(fields[len(fields)-1])]
	return ok
}
