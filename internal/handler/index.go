package handler

import (
	"bytes"
	_ "embed"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/rmcloud-dev/rmcloud/internal/logger"
)

//go:embed index.md
var indexMarkdown []byte

var indexPage = renderIndex()

func renderIndex() []byte {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>rmcloud</title></head><body>\n")
	if err := goldmark.Convert(indexMarkdown, &buf); err != nil {
		logger.Log.Error("render index page", "error", err)
		return []byte("rmcloud")
	}
	buf.WriteString("</body></html>\n")
	return buf.Bytes()
}

// Index serves the informational landing page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexPage)
}
