package handlers

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"path"
	"strings"
	"sync"
)

// UploadsHandler serves a placeholder for every product image under
// /wp-content/uploads/
type UploadsHandler struct {
	once sync.Once
	img  []byte
}

// NewUploadsHandler creates a new uploads handler
func NewUploadsHandler() *UploadsHandler {
	return &UploadsHandler{}
}

func (h *UploadsHandler) placeholder() []byte {
	h.once.Do(func() {
		m := image.NewRGBA(image.Rect(0, 0, 1, 1))
		m.Set(0, 0, color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff})
		var buf bytes.Buffer
		if err := png.Encode(&buf, m); err == nil {
			h.img = buf.Bytes()
		}
	})
	return h.img
}

// ServeHTTP serves the placeholder image for image paths
func (h *UploadsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	switch strings.ToLower(path.Ext(r.URL.Path)) {
	case ".png", ".jpg", ".jpeg", ".webp":
	default:
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(h.placeholder())
}
