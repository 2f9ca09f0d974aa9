package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/couchcryptid/disaster-map-service/internal/mapview"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

type indexData struct {
	Map mapview.MapSettings
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, indexData{Map: s.deps.View.Snapshot().Map}); err != nil {
		s.internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
