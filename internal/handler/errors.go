package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/family-trip/internal/llm"
	"github.com/pkordes/family-trip/internal/pdftext"
	"github.com/pkordes/family-trip/internal/service"
)

// errorBody is the JSON shape of every failure response: {"error": "..."}.
type errorBody struct {
	Error string `json:"error"`
}

// messageBody is the shape of a 404 for the trip document: {"message": "..."}.
// Clients test for it to tell "nothing saved yet" from a failure.
type messageBody struct {
	Message string `json:"message"`
}

const (
	msgInvalidJSON  = "Invalid JSON body"
	msgNoTrip       = "No trip data yet"
	msgBodyTooLarge = "Request body too large"
	msgMissingPDF   = "Missing pdfBase64 in body"
	msgBadPDFBase64 = "Invalid base64 in PDF data."
	msgUnreadable   = "Could not read the PDF. It may be corrupted, password-protected, or image-only (scanned). Try exporting as text or copying the text into the paste box."
	msgNoPDFText    = "No text could be extracted from the PDF (maybe scanned images?). Try pasting the text or using an image of the page with Import."
	msgMissingImage = "Missing imageBase64 in body"
	msgNoModel      = "OPENAI_API_KEY is required to extract text from images."
	msgNoImageText  = "No text could be extracted from the image."
	msgBadAPIKey    = "Invalid or missing OPENAI_API_KEY. Check your server environment."
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeInternal logs err and answers 500 with its message.
func (s *Server) writeInternal(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.log.Error(op+".failed", "error", err, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, err.Error())
}

// isBodyTooLarge reports whether err came from a body cut off by
// http.MaxBytesReader.
func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// extractionFailure maps an extraction error to a status and message.
func extractionFailure(err error) (int, string) {
	switch {
	case errors.Is(err, pdftext.ErrUnreadable):
		return http.StatusBadRequest, msgUnreadable
	case errors.Is(err, service.ErrNoPDFText):
		return http.StatusBadRequest, msgNoPDFText
	case errors.Is(err, service.ErrNoImageText):
		return http.StatusBadRequest, msgNoImageText
	case errors.Is(err, service.ErrExtractionUnavailable):
		return http.StatusServiceUnavailable, msgNoModel
	}

	var apiErr *llm.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return http.StatusInternalServerError, msgBadAPIKey
	}
	msg := err.Error()
	if strings.Contains(msg, "API key") || strings.Contains(msg, "401") {
		return http.StatusInternalServerError, msgBadAPIKey
	}
	return http.StatusInternalServerError, "Extraction failed: " + rootMessage(err)
}

// rootMessage strips the "pkg.Type.Method: " prefixes added while the error
// travelled up, leaving the innermost message.
func rootMessage(err error) string {
	msg := err.Error()
	for {
		i := strings.Index(msg, ": ")
		if i < 0 || strings.ContainsAny(msg[:i], " ") || !strings.Contains(msg[:i], ".") {
			return msg
		}
		msg = msg[i+2:]
	}
}
