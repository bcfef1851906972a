package servicedef

import "strings"

const RecognitionServiceName = "LinguaSigna ML Server"

const (
	TranslatePath = "/translate"
	StatusPath    = "/status"
)

// Language is a sign language code accepted by the recognition service and by translation sessions.
type Language string

const (
	LanguageASL Language = "asl"
	LanguageGSL Language = "gsl"
)

// SupportedLanguages lists the languages both services accept, in the order the status endpoint
// reports them.
var SupportedLanguages = []Language{LanguageASL, LanguageGSL} //nolint:gochecknoglobals

// ParseLanguage normalizes a language code. The second return value is false if the code is not
// supported.
func ParseLanguage(s string) (Language, bool) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, supported := range SupportedLanguages {
		if l == supported {
			return l, true
		}
	}
	return l, false
}

type TranslateParams struct {
	Image    string `json:"image"`
	Language string `json:"language"`
}

// TranslateRep is the recognition service's answer to a frame. Success is false with a Message when
// no sign was recognized; that is still an HTTP 200 response.
type TranslateRep struct {
	Success          bool    `json:"success"`
	Translation      string  `json:"translation,omitempty"`
	Confidence       float64 `json:"confidence,omitempty"`
	Language         string  `json:"language,omitempty"`
	Timestamp        string  `json:"timestamp,omitempty"`
	ProcessingTimeMS int     `json:"processing_time_ms,omitempty"`
	Message          string  `json:"message,omitempty"`
	Error            string  `json:"error,omitempty"`
}

type RecognitionStatusRep struct {
	Server             string     `json:"server"`
	Status             string     `json:"status"`
	Endpoints          []string   `json:"endpoints"`
	LanguagesSupported []Language `json:"languages_supported"`
	Timestamp          string     `json:"timestamp"`
}
