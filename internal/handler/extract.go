package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
)

type parseRequest struct {
	PDFBase64 string `json:"pdfBase64"`
	FileName  string `json:"fileName"`
}

type ocrRequest struct {
	ImageBase64 string `json:"imageBase64"`
	MimeType    string `json:"mimeType"`
}

// PostParse handles POST /parse: a base64 PDF in, a partial trip out.
func (s *Server) PostParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.PDFBase64 == "" {
		writeError(w, http.StatusBadRequest, msgMissingPDF)
		return
	}
	pdf, err := decodeBase64(req.PDFBase64)
	if err != nil || len(pdf) == 0 {
		writeError(w, http.StatusBadRequest, msgBadPDFBase64)
		return
	}

	s.log.Info("parse.request", "file_name", req.FileName, "bytes", len(pdf))
	ex, err := s.extract.ParsePDF(r.Context(), pdf)
	if err != nil {
		status, msg := extractionFailure(err)
		s.log.Warn("parse.failed", "file_name", req.FileName, "status", status, "error", err)
		writeError(w, status, msg)
		return
	}
	w.Header().Set("X-Extraction-Mode", ex.Mode)
	writeJSON(w, http.StatusOK, ex.Partial)
}

// PostOCR handles POST /ocr: a base64 image in, a partial trip out.
func (s *Server) PostOCR(w http.ResponseWriter, r *http.Request) {
	var req ocrRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.ImageBase64 == "" {
		writeError(w, http.StatusBadRequest, msgMissingImage)
		return
	}
	mime := req.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}

	ex, err := s.extract.ParseImage(r.Context(), stripDataURL(req.ImageBase64), mime)
	if err != nil {
		status, msg := extractionFailure(err)
		s.log.Warn("ocr.failed", "mime", mime, "status", status, "error", err)
		writeError(w, status, msg)
		return
	}
	w.Header().Set("X-Extraction-Mode", ex.Mode)
	writeJSON(w, http.StatusOK, ex.Partial)
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, ok := s.readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return false
	}
	return true
}

// stripDataURL drops a "data:<mime>;base64," prefix.
func stripDataURL(s string) string {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}

// decodeBase64 accepts standard or URL-safe base64, padded or not, with
// embedded line breaks.
func decodeBase64(s string) ([]byte, error) {
	s = stripDataURL(strings.TrimSpace(s))
	s = strings.NewReplacer("\n", "", "\r", "", " ", "").Replace(s)
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return base64.StdEncoding.DecodeString(s)
}
