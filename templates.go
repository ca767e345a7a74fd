package playerfeedback

import (
	"io/fs"
	"net/http"

	"github.com/goliatone/go-playerfeedback/pkg/renderers/vanilla"
)

// EmbeddedTemplates exposes the built-in HTML templates so callers can copy
// or extend them.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}

// AssetsHandler serves the bundled stylesheet.
//
// Typical mount:
//
//	mux.Handle("/playerfeedback/",
//	  http.StripPrefix("/playerfeedback/", playerfeedback.AssetsHandler()),
//	)
func AssetsHandler() http.Handler {
	return http.FileServerFS(vanilla.AssetsFS())
}
