package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// spaHandler serves files from root and answers every other GET outside /api
// with root/index.html, so client-side routes survive a reload.
func spaHandler(root string) http.HandlerFunc {
	files := http.FileServer(http.Dir(root))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || strings.HasPrefix(r.URL.Path, "/api") {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		p := filepath.Join(root, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(root, "index.html"))
	}
}
