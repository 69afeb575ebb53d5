// Package i18n translates the few control labels shown by front ends.
// Keys are the English text, so an untranslated key falls back to itself.
package i18n

import (
	"log"
	"os"
	"strings"

	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/language"
)

// EnvLang forces the language regardless of the system locale
const EnvLang = "MACRO_LANG"

var supported = []language.Tag{
	language.English,
	language.Portuguese,
	language.Spanish,
}

var matcher = language.NewMatcher(supported)

var translations = map[string]map[string]string{
	"Click to set the key": {
		"pt": "Clique para definir a tecla",
		"es": "Haz clic para definir la tecla",
	},
	"Waiting for input...": {
		"pt": "Aguardando entrada...",
		"es": "Esperando entrada...",
	},
	"'%s' selected": {
		"pt": "'%s' selecionado",
		"es": "'%s' seleccionado",
	},
	"Start": {
		"pt": "Iniciar",
		"es": "Iniciar",
	},
	"Stop": {
		"pt": "Parar",
		"es": "Parar",
	},
	"Quit": {
		"pt": "Sair",
		"es": "Salir",
	},
}

// Translator looks up labels for one language
type Translator struct {
	lang string
}

// New returns a translator for the closest supported match of lang.
// An empty lang selects English.
func New(lang string) *Translator {
	return &Translator{lang: Match(lang)}
}

// Detect picks the language from MACRO_LANG, then the override argument, then
// the system locale.
func Detect(override string) *Translator {
	if forced := strings.TrimSpace(os.Getenv(EnvLang)); forced != "" {
		log.Printf("%s is set to: '%s'", EnvLang, forced)
		return New(forced)
	}
	if override = strings.TrimSpace(override); override != "" {
		return New(override)
	}

	userLocales, err := locale.GetLocales()
	if err != nil || len(userLocales) == 0 {
		log.Println("Could not get user locale, defaulting to english")
		return New("en")
	}

	log.Printf("Detected user locales: %v", userLocales)
	t := New(strings.Join(userLocales, ","))
	log.Printf("Language set to: %s", t.lang)
	return t
}

// Match maps a locale list such as "pt-BR" or "fr,es;q=0.8" to a supported base language
func Match(locales string) string {
	desired, _, err := language.ParseAcceptLanguage(strings.ReplaceAll(locales, "_", "-"))
	if err != nil || len(desired) == 0 {
		return "en"
	}
	tag, _, confidence := matcher.Match(desired...)
	if confidence == language.No {
		return "en"
	}
	base, _ := tag.Base()
	return base.String()
}

// T translates key, returning key itself when no translation exists
func (t *Translator) T(key string) string {
	if translated, ok := translations[key][t.lang]; ok {
		return translated
	}
	return key
}

// Lang returns the selected base language
func (t *Translator) Lang() string {
	return t.lang
}
