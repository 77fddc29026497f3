package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestPrinter_English(t *testing.T) {
	p := New(language.English)

	assert.Equal(t, "Your Google Account", p.T("Your %s Account", "Google"))
	assert.Equal(t, "Error Signing In", p.T("Error Signing In"))
	assert.Equal(t, "en", p.Lang())
}

func TestPrinter_French(t *testing.T) {
	p := Parse("fr")

	assert.Equal(t, "Votre compte Google", p.T("Your %s Account", "Google"))
	assert.Equal(t, "Erreur de connexion", p.T("Error Signing In"))
	assert.Equal(t, "Une erreur s'est produite, veuillez réessayer.", p.T("An error has occurred, please try again."))
}

func TestFromAcceptLanguage(t *testing.T) {
	en := New(language.English)

	assert.Equal(t, language.Spanish, FromAcceptLanguage("es-MX,es;q=0.9,en;q=0.5", en).Tag())
	assert.Equal(t, language.French, FromAcceptLanguage("fr-CA", en).Tag())
	assert.Equal(t, language.English, FromAcceptLanguage("de-DE", en).Tag())
	assert.Same(t, en, FromAcceptLanguage("", en))
}

func TestFromAcceptLanguage_UnsupportedUsesFallback(t *testing.T) {
	fr := New(language.French)
	assert.Same(t, fr, FromAcceptLanguage("de-DE,de;q=0.9", fr))
	assert.Equal(t, language.English, FromAcceptLanguage("de-DE", nil).Tag())
	assert.Equal(t, language.Spanish, FromAcceptLanguage("de-DE,es;q=0.5", fr).Tag())
}

func TestParse_Unknown(t *testing.T) {
	assert.Equal(t, language.English, Parse("not a locale!").Tag())
}

func TestCatalog_EveryLocaleHasTheSameKeys(t *testing.T) {
	fr := translations[language.French]
	for key := range translations[language.Spanish] {
		_, ok := fr[key]
		assert.True(t, ok, "missing French entry for %q", key)
	}
	assert.Len(t, translations[language.Spanish], len(fr))
}
