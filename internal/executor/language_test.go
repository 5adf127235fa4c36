package executor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/exam-ide/internal/executor"
)

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want executor.Language
	}{
		{"python", executor.Python},
		{"  PY ", executor.Python},
		{"Js", executor.JavaScript},
		{"JavaScript", executor.JavaScript},
		{"java", executor.Java},
		{"C++", executor.CPP},
		{"cpp", executor.CPP},
		{"c", executor.C},
		{" COBOL ", executor.Language("cobol")},
		{"", executor.Language("")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, executor.NormalizeLanguage(tt.in))
		})
	}
}

func TestLanguageKnown(t *testing.T) {
	for _, l := range executor.Languages {
		assert.True(t, l.Known(), "%s should be known", l)
	}
	assert.False(t, executor.Language("cobol").Known())
	assert.False(t, executor.Language("py").Known(), "synonyms are not canonical")
}

func TestSynonymsReturnsCopy(t *testing.T) {
	s := executor.Synonyms()
	s["py"] = executor.Java

	assert.Equal(t, executor.Python, executor.NormalizeLanguage("py"))
}
