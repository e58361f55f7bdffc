// Package apierror maps raw upstream provider error text onto a fixed table of
// documented Gemini API failures so callers get a stable code, description and
// remedy regardless of how the upstream phrased the message.
package apierror

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

const (
	StatusUnknown = "UNKNOWN_ERROR"

	descUnknown  = "unrecognized error"
	descProvider = "unrecognized provider error"
)

// Entry is one row of the error table.
type Entry struct {
	HTTPCode    int    `json:"http_code"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Example     string `json:"example"`
	Remedy      string `json:"solution"`
}

// codeStatusPattern matches "<3 digits> <UPPER_TOKEN>" anywhere in the text.
var codeStatusPattern = regexp.MustCompile(`\b(\d{3})\s+([A-Z_]+)\b`)

// Classify maps raw upstream error text to a table entry. It never fails:
// text without a code/status pair degrades to UNKNOWN_ERROR carrying the raw
// text as the example.
func Classify(raw string) Entry {
	m := codeStatusPattern.FindStringSubmatch(raw)
	if m == nil {
		return Entry{
			HTTPCode:    http.StatusInternalServerError,
			Status:      StatusUnknown,
			Description: descUnknown,
			Example:     raw,
			Remedy:      "Retry the request; if it keeps failing, check the server logs.",
		}
	}
	if entry, ok := table[m[2]]; ok {
		return entry
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		code = http.StatusInternalServerError
	}
	return Entry{
		HTTPCode:    code,
		Status:      m[2],
		Description: descProvider,
		Example:     raw,
		Remedy:      "Check the provider status page and the request parameters.",
	}
}

// Coded is implemented by errors that already know their upstream HTTP code
// and canonical status token.
type Coded interface {
	error
	HTTPStatus() (code int, status string)
}

// FromError classifies err. When any error in the chain is Coded, its code and
// status drive the lookup instead of the free text.
func FromError(err error) Entry {
	if err == nil {
		return Classify("")
	}
	var coded Coded
	if errors.As(err, &coded) {
		code, status := coded.HTTPStatus()
		if status != "" {
			return Classify(strconv.Itoa(code) + " " + strings.ToUpper(status) + ". " + err.Error())
		}
	}
	return Classify(err.Error())
}

// Lookup returns the static entry for a status token.
func Lookup(status string) (Entry, bool) {
	e, ok := table[status]
	return e, ok
}
