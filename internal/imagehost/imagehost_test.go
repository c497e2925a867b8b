// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package imagehost

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestProcessKeepsSmallImages(t *testing.T) {
	p := NewProcessor()
	got, err := p.Process(bytes.NewReader(testJPEG(t, 100, 50)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got.Width != 100 || got.Height != 50 {
		t.Errorf("dimensions = %dx%d, want 100x50", got.Width, got.Height)
	}
	if got.MimeType != "image/jpeg" {
		t.Errorf("MimeType = %q, want image/jpeg", got.MimeType)
	}
	if !strings.HasSuffix(got.Filename, ".jpg") {
		t.Errorf("Filename = %q, want .jpg suffix", got.Filename)
	}
}

func TestProcessScalesDownWideImages(t *testing.T) {
	p := NewProcessor()
	got, err := p.Process(bytes.NewReader(testJPEG(t, 3200, 1600)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got.Width != MaxImageWidth {
		t.Errorf("width = %d, want %d", got.Width, MaxImageWidth)
	}
	if got.Height != 800 {
		t.Errorf("height = %d, want 800 (aspect preserved)", got.Height)
	}
}

func TestProcessPreservesPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}

	p := NewProcessor()
	got, err := p.Process(&buf)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got.MimeType != "image/png" {
		t.Errorf("MimeType = %q, want image/png", got.MimeType)
	}
}

func TestProcessRejectsGarbage(t *testing.T) {
	p := NewProcessor()
	if _, err := p.Process(strings.NewReader("not an image at all")); err == nil {
		t.Error("expected error for non-image data")
	}
}

func TestClientUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if _, _, err := r.FormFile("image"); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"data":{"url":"https://cdn.example/i/abc.jpg"},"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 5*time.Second)
	url, err := c.Upload(context.Background(), &Processed{Data: []byte("x"), Filename: "a.jpg"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "https://cdn.example/i/abc.jpg" {
		t.Errorf("url = %q", url)
	}
}

func TestClientUploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 5*time.Second)
	_, err := c.Upload(context.Background(), &Processed{Data: []byte("x"), Filename: "a.jpg"})
	if !errors.Is(err, ErrUploadFailed) {
		t.Errorf("got %v, want ErrUploadFailed", err)
	}
}

func TestClientWithoutKey(t *testing.T) {
	c := NewClient("https://api.example/upload", "", 0)
	_, err := c.Upload(context.Background(), &Processed{Data: []byte("x"), Filename: "a.jpg"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("got %v, want ErrNotConfigured", err)
	}
}
