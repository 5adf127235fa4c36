package executor

import (
	"maps"
	"slices"
	"strings"
)

// Language is a canonical language tag understood by the engine.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	Java       Language = "java"
	CPP        Language = "cpp"
	C          Language = "c"
)

// Languages lists every canonical language in display order.
var Languages = []Language{Python, JavaScript, Java, CPP, C}

// synonyms maps alternative spellings to their canonical tag. It is built once
// and never written to; use Synonyms for a copy.
var synonyms = map[string]Language{
	"py":  Python,
	"js":  JavaScript,
	"c++": CPP,
}

// NormalizeLanguage trims and lower-cases a free-form tag and resolves
// synonyms. Unknown tags are returned normalized but otherwise untouched so
// that error messages can quote them.
func NormalizeLanguage(tag string) Language {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if canonical, ok := synonyms[tag]; ok {
		return canonical
	}
	return Language(tag)
}

// Known reports whether l is one of the canonical languages.
func (l Language) Known() bool {
	return slices.Contains(Languages, l)
}

// Synonyms returns a copy of the synonym table.
func Synonyms() map[string]Language {
	return maps.Clone(synonyms)
}
