package hxhook

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHTMX(t *testing.T) {
	tests := []struct {
		name   string
		header string
		expect bool
	}{
		{"htmx request", "true", true},
		{"no header", "", false},
		{"other value", "false", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("HX-Request", tt.header)
			}
			assert.Equal(t, tt.expect, IsHTMX(req))
		})
	}
}

func TestErrorComponent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorComponent(errors.New("something went wrong")).Render(context.Background(), &buf))
	assert.Equal(t, `<div class="hxhook-error">something went wrong</div>`, buf.String())
}

func TestErrorComponent_HTMLEscaping(t *testing.T) {
	var buf bytes.Buffer
	err := errors.New(`<script>alert("xss")</script>`)
	require.NoError(t, ErrorComponent(err).Render(context.Background(), &buf))
	assert.NotContains(t, buf.String(), "<script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}
