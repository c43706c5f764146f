// Package httpx provides HTTP response utilities.
package httpx

import (
	"net/http"
)

// Classifier maps an error to a status, a title and an optional machine code.
// ok is false for errors the classifier does not recognise.
type Classifier func(err error) (status int, title, code string, ok bool)

// RespondError renders err as RFC7807. Unclassified errors become a 500 without
// detail so internals never leak to clients.
func RespondError(w http.ResponseWriter, err error, classify Classifier) {
	if classify != nil {
		if status, title, code, ok := classify(err); ok {
			JSON(w, status, ProblemDetail{Title: title, Status: status, Detail: err.Error(), Code: code}, problemContentType)
			return
		}
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
