package servicedef

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLanguage(t *testing.T) {
	for _, s := range []string{"asl", "ASL", " gsl "} {
		t.Run(s, func(t *testing.T) {
			l, ok := ParseLanguage(s)
			assert.True(t, ok)
			assert.Contains(t, SupportedLanguages, l)
		})
	}

	l, ok := ParseLanguage("fr")
	assert.False(t, ok)
	assert.Equal(t, Language("fr"), l)
}

func TestTranslationSessionsPathFor(t *testing.T) {
	assert.Equal(t, "/translation/sessions/abc", TranslationSessionsPathFor("abc"))
}
