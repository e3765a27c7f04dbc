package export

import (
	"context"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/inamate/whiteboard/internal/asset"
	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/store"
)

func newRouter(t *testing.T) *mux.Router {
	t.Helper()
	st, err := store.NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	data, err := document.Encode(document.NewSampleProject())
	if err != nil {
		t.Fatal(err)
	}
	if err := st.WriteBytes(context.Background(), "demo", data); err != nil {
		t.Fatal(err)
	}

	h := NewHandler(st, asset.NewMemory(), 320, 200)
	r := mux.NewRouter()
	r.HandleFunc("/api/projects/{name}/preview.png", h.Preview).Methods("GET")
	r.HandleFunc("/api/projects/{name}/export", h.ExportImage).Methods("GET")
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestPreview(t *testing.T) {
	rec := get(newRouter(t), "/api/projects/demo/preview.png")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 200 {
		t.Errorf("size = %v", b)
	}
}

func TestExportJPEG(t *testing.T) {
	rec := get(newRouter(t), "/api/projects/demo/export?format=jpg&width=64&height=48&quality=50")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="demo.jpg"` {
		t.Errorf("disposition = %q", got)
	}
	img, err := jpeg.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("size = %v", b)
	}
}

func TestExportErrors(t *testing.T) {
	r := newRouter(t)
	for _, tc := range []struct {
		path string
		want int
	}{
		{"/api/projects/missing/preview.png", http.StatusNotFound},
		{"/api/projects/demo/export?format=gif", http.StatusBadRequest},
		{"/api/projects/demo/export?width=0", http.StatusBadRequest},
		{"/api/projects/demo/export?height=99999", http.StatusBadRequest},
	} {
		if rec := get(r, tc.path); rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.path, rec.Code, tc.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	if got := sanitize("my board/ü"); got != "my-board--" {
		t.Errorf("sanitize = %q", got)
	}
}
