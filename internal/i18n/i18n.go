// Package i18n translates the user-facing strings of the connect pages.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Supported lists the available locales. The first entry is the fallback.
var Supported = []language.Tag{
	language.English,
	language.French,
	language.Spanish,
}

var (
	matcher = language.NewMatcher(Supported)
	cat     = buildCatalog()
)

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, entries := range translations {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				panic("i18n: " + err.Error())
			}
		}
	}
	return b
}

// Printer formats catalog messages for one locale.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// New returns a Printer for the supported locale closest to tag.
func New(tag language.Tag) *Printer {
	return newPrinter(match(tag))
}

// Parse returns a Printer for a locale string such as "fr" or "es-MX".
// Unparseable input yields the fallback locale.
func Parse(locale string) *Printer {
	tag, err := language.Parse(locale)
	if err != nil {
		return newPrinter(Supported[0])
	}
	return New(tag)
}

// FromAcceptLanguage picks a locale from an Accept-Language header,
// using fallback when the header is empty, unusable or names no
// supported locale.
func FromAcceptLanguage(header string, fallback *Printer) *Printer {
	if fallback == nil {
		fallback = newPrinter(Supported[0])
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	tag, ok := lookup(tags...)
	if !ok {
		return fallback
	}
	return newPrinter(tag)
}

func match(tags ...language.Tag) language.Tag {
	tag, _ := lookup(tags...)
	return tag
}

// lookup reports false when no supported locale is close to tags.
func lookup(tags ...language.Tag) (language.Tag, bool) {
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Supported[0], false
	}
	return Supported[idx], true
}

func newPrinter(tag language.Tag) *Printer {
	return &Printer{tag: tag, p: message.NewPrinter(tag, message.Catalog(cat))}
}

// Tag returns the locale of p.
func (p *Printer) Tag() language.Tag { return p.tag }

// Lang returns the BCP 47 form of the locale, for the html lang attribute.
func (p *Printer) Lang() string { return p.tag.String() }

// T translates key and formats it with args.
func (p *Printer) T(key string, args ...any) string {
	return p.p.Sprintf(key, args...)
}
