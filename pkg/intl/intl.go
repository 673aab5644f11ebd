package intl

import (
	"golang.org/x/text/language"
)

// Language is a UI language with a message catalog. Code matches the
// effective_language values the platform returns from /me.
type Language struct {
	Code string
	Name string
	Tag  language.Tag
}

var languages = []Language{
	{Code: "en", Name: "English", Tag: language.English},
	{Code: "nl", Name: "Nederlands", Tag: language.Dutch},
}

// Languages returns the catalogs named by codes, in catalog order. Unknown
// codes are skipped; no codes selects every catalog.
func Languages(codes ...string) []Language {
	if len(codes) == 0 {
		return languages
	}
	out := make([]Language, 0, len(codes))
	for _, lang := range languages {
		for _, code := range codes {
			if lang.Code == code {
				out = append(out, lang)
				break
			}
		}
	}
	return out
}

// Tags is Languages projected to language tags, ready for a matcher.
func Tags(codes ...string) []language.Tag {
	langs := Languages(codes...)
	tags := make([]language.Tag, len(langs))
	for i, lang := range langs {
		tags[i] = lang.Tag
	}
	return tags
}

func Codes() []string {
	codes := make([]string, len(languages))
	for i, lang := range languages {
		codes[i] = lang.Code
	}
	return codes
}
