package http

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var rawSpec []byte

// loadSpec parses and validates the embedded API description once.
var loadSpec = sync.OnceValues(func() (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi spec: %w", err)
	}
	return doc, nil
})

// Spec returns the validated API description served at /openapi.yaml.
func Spec() (*openapi3.T, error) {
	return loadSpec()
}

func (s *Server) openAPI(w http.ResponseWriter, r *http.Request) {
	if _, err := loadSpec(); err != nil {
		s.logger.Error("Failed to load OpenAPI spec", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load spec")
		return
	}
	w.Header().Set("Content-Type", "text/yaml")
	w.Write(rawSpec)
}
