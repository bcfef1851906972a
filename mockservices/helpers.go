package mockservices

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/linguasigna/integration-harness/servicedef"
)

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

func writeJSON(w http.ResponseWriter, status int, rep interface{}) {
	data, err := json.Marshal(rep)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, servicedef.ErrorRep{Success: false, Error: message})
}

// readJSON decodes the request body. An empty or malformed body leaves target unchanged and
// returns false.
func readJSON(r *http.Request, target interface{}) bool {
	if r.Body == nil {
		return false
	}
	return json.NewDecoder(r.Body).Decode(target) == nil
}
