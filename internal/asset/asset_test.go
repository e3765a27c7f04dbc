package asset

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	return img
}

func TestDecodeFormats(t *testing.T) {
	var pngBuf, bmpBuf bytes.Buffer
	if err := png.Encode(&pngBuf, testImage(4, 3)); err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(&bmpBuf, testImage(4, 3)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		data   []byte
		format string
	}{
		{"png", pngBuf.Bytes(), "png"},
		{"bmp", bmpBuf.Bytes(), "bmp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, format, err := Decode(tt.name, bytes.NewReader(tt.data))
			if err != nil {
				t.Fatal(err)
			}
			if format != tt.format || img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
				t.Errorf("format=%s bounds=%v", format, img.Bounds())
			}
		})
	}
}

func TestDecodeError(t *testing.T) {
	_, _, err := Decode("notes.txt", strings.NewReader("not an image"))
	var decodeErr *ImageDecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("got %v, want *ImageDecodeError", err)
	}
	if decodeErr.Name != "notes.txt" {
		t.Errorf("name = %q", decodeErr.Name)
	}
}

func TestDirStore(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	a, err := d.Put("red.png", testImage(5, 6))
	if err != nil {
		t.Fatal(err)
	}
	if a.Width != 5 || a.Height != 6 || !strings.HasPrefix(a.ID, "asset_") {
		t.Errorf("asset = %+v", a)
	}

	img, ok := d.Image(a.ID)
	if !ok || img.Bounds().Dx() != 5 {
		t.Fatalf("Image(%s) = %v, %v", a.ID, img, ok)
	}
	if _, ok := d.Image("../etc/passwd"); ok {
		t.Error("accepted a non-asset id")
	}

	if err := d.Delete(a.ID); err != nil {
		t.Fatal(err)
	}
	if err := d.Delete(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory()
	a, _ := m.Put("x", testImage(2, 2))
	if _, ok := m.Image(a.ID); !ok {
		t.Fatal("stored image missing")
	}
	if err := m.Delete(a.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Image(a.ID); ok {
		t.Error("deleted image still present")
	}
}

func TestUploadHandler(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(d)

	upload := func(filename string, data []byte) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, _ := mw.CreateFormFile("file", filename)
		fw.Write(data)
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/assets/upload", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		h.Upload(rec, req)
		return rec
	}

	var buf bytes.Buffer
	png.Encode(&buf, testImage(8, 8))
	rec := upload("square.png", buf.Bytes())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var a Asset
	if err := json.NewDecoder(rec.Body).Decode(&a); err != nil {
		t.Fatal(err)
	}
	if _, ok := d.Image(a.ID); a.Width != 8 || !ok {
		t.Errorf("asset = %+v", a)
	}

	rec = upload("broken.png", []byte("garbage"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("broken upload status = %d", rec.Code)
	}
}
