package mockservices

import (
	"encoding/base64"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/linguasigna/integration-harness/framework"
	"github.com/linguasigna/integration-harness/framework/helpers"
	"github.com/linguasigna/integration-harness/servicedef"
)

// DefaultRecognitionDelay is how long the mock recognition service pretends to work on each frame.
const DefaultRecognitionDelay = time.Millisecond * 100

// minRecognizableFrameSize is the decoded frame size above which the mock reports a recognized sign.
// Anything smaller gets the "no hands detected" answer.
const minRecognizableFrameSize = 10

var vocabulary = map[servicedef.Language][]string{ //nolint:gochecknoglobals
	servicedef.LanguageASL: {
		"Hello", "Thank you", "Please", "Sorry", "Yes", "No",
		"Good morning", "How are you?", "Nice to meet you",
	},
	servicedef.LanguageGSL: {
		"Akwaaba", "Medaase", "Mepa wo kyɛw", "Kafra", "Aane", "Daabi",
		"Mema wo akye", "Wo ho te sɛn?", "Me ani agye",
	},
}

// Vocabulary returns the words the mock recognition service can answer with for a language.
func Vocabulary(language servicedef.Language) []string {
	return helpers.CopyOf(vocabulary[language])
}

// RecognitionService is a stand-in for the sign-language recognition service. It answers every
// sufficiently large frame with a random word from the requested language's vocabulary.
type RecognitionService struct {
	handler     http.Handler
	debugLogger framework.Logger
	delay       time.Duration
	random      *rand.Rand
	lock        sync.Mutex
}

// RecognitionOption is an option for NewRecognitionService.
type RecognitionOption = helpers.ConfigOption[RecognitionService]

// RecognitionDelay changes the simulated processing time from DefaultRecognitionDelay.
func RecognitionDelay(delay time.Duration) RecognitionOption {
	return helpers.OptionFunc[RecognitionService](func(s *RecognitionService) error {
		s.delay = delay
		return nil
	})
}

// RecognitionSeed makes the choice of words and confidence values repeatable.
func RecognitionSeed(seed int64) RecognitionOption {
	return helpers.OptionFunc[RecognitionService](func(s *RecognitionService) error {
		s.random = rand.New(rand.NewSource(seed)) //nolint:gosec // not security-sensitive
		return nil
	})
}

func NewRecognitionService(debugLogger framework.Logger, options ...RecognitionOption) (*RecognitionService, error) {
	s := &RecognitionService{
		debugLogger: debugLogger,
		delay:       DefaultRecognitionDelay,
		random:      rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // not security-sensitive
	}
	if err := helpers.ApplyOptions(s, options...); err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	router.HandleFunc("/", s.serveHealth).Methods("GET")
	router.HandleFunc(servicedef.HealthPath, s.serveHealth).Methods("GET")
	router.HandleFunc(servicedef.StatusPath, s.serveStatus).Methods("GET")
	router.HandleFunc(servicedef.TranslatePath, s.serveTranslate).Methods("POST")
	s.handler = router

	return s, nil
}

func (s *RecognitionService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *RecognitionService) serveHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, servicedef.HealthRep{
		Status:    "healthy",
		Service:   servicedef.RecognitionServiceName,
		Timestamp: formatTimestamp(time.Now()),
		Version:   "1.0.0",
	})
}

func (s *RecognitionService) serveStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, servicedef.RecognitionStatusRep{
		Server: "ML Translation Server",
		Status: "running",
		Endpoints: []string{
			servicedef.HealthPath + " - Health check",
			servicedef.TranslatePath + " - POST translation endpoint",
			servicedef.StatusPath + " - This status endpoint",
		},
		LanguagesSupported: servicedef.SupportedLanguages,
		Timestamp:          formatTimestamp(time.Now()),
	})
}

func (s *RecognitionService) serveTranslate(w http.ResponseWriter, r *http.Request) {
	var params servicedef.TranslateParams
	if !readJSON(r, &params) {
		writeError(w, http.StatusBadRequest, "No JSON data provided")
		return
	}
	if params.Language == "" {
		params.Language = string(servicedef.LanguageASL)
	}
	language, ok := servicedef.ParseLanguage(params.Language)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unsupported language: "+string(language))
		return
	}
	frame, err := base64.StdEncoding.DecodeString(params.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid base64 image data")
		return
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
	}

	if len(frame) <= minRecognizableFrameSize {
		s.debugLogger.Printf("No sign recognized in %d-byte frame", len(frame))
		writeJSON(w, http.StatusOK, servicedef.TranslateRep{
			Success:   false,
			Message:   "No hands detected or invalid image",
			Language:  string(language),
			Timestamp: formatTimestamp(time.Now()),
		})
		return
	}

	words := vocabulary[language]
	s.lock.Lock()
	word := words[s.random.Intn(len(words))]
	confidence := 0.80 + s.random.Float64()*0.15
	s.lock.Unlock()
	s.debugLogger.Printf("Recognized %q (%s) in %d-byte frame", word, language, len(frame))

	writeJSON(w, http.StatusOK, servicedef.TranslateRep{
		Success:          true,
		Translation:      word,
		Confidence:       confidence,
		Language:         string(language),
		Timestamp:        formatTimestamp(time.Now()),
		ProcessingTimeMS: int(s.delay / time.Millisecond),
	})
}
