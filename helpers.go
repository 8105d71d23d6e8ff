package hxhook

import (
	"context"
	"html"
	"io"
	"net/http"

	"github.com/a-h/templ"
)

// IsHTMX returns true if the request originated from HTMX.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// ErrorComponent renders err as a small inline block. A development
// Registry answers failed requests with it.
func ErrorComponent(err error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, werr := io.WriteString(w, `<div class="hxhook-error">`+html.EscapeString(err.Error())+`</div>`)
		return werr
	})
}
