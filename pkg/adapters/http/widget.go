package http

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed widget
var widgetFS embed.FS

func (s *Server) widgetPage(w http.ResponseWriter, r *http.Request) {
	page, err := widgetFS.ReadFile("widget/index.html")
	if err != nil {
		s.logger.Error("Failed to read widget page", "err", err)
		writeError(w, http.StatusInternalServerError, "widget unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) widgetAssets(w http.ResponseWriter, r *http.Request) {
	sub, err := fs.Sub(widgetFS, "widget")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "widget unavailable")
		return
	}
	http.StripPrefix("/widget/", http.FileServerFS(sub)).ServeHTTP(w, r)
}
