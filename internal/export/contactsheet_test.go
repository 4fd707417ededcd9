package export

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/jackzampolin/darkroom/internal/store"
)

// pngPayload encodes a small real PNG so the PDF importer can decode it.
func pngPayload(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: uint8(x * 4), B: uint8(y * 4), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestContactSheet(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.New(t.TempDir(), store.Options{Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	shoot, err := st.CreateShoot(ctx, "export test")
	if err != nil {
		t.Fatal(err)
	}
	frame, err := st.AddFrame(ctx, shoot.ID, store.Params{"style": "product"})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := st.AddSnapshot(ctx, shoot.ID, frame.ID, pngPayload(t, uint8(i*80)), nil); err != nil {
			t.Fatal(err)
		}
	}

	shoot, err = st.GetShoot(ctx, shoot.ID)
	if err != nil {
		t.Fatal(err)
	}

	outPath := filepath.Join(t.TempDir(), "sheet.pdf")
	count, err := ContactSheet(shoot, st.Blobs(), outPath)
	if err != nil {
		t.Fatalf("ContactSheet() error = %v", err)
	}
	if count != 3 {
		t.Errorf("image count = %d, want 3", count)
	}

	pages, err := pdfapi.PageCountFile(outPath)
	if err != nil {
		t.Fatalf("reading produced PDF: %v", err)
	}
	if pages != 3 {
		t.Errorf("PDF pages = %d, want 3", pages)
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		t.Errorf("export file missing or empty: %v", err)
	}
}

func TestContactSheetEmptyShoot(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.New(t.TempDir(), store.Options{Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	shoot, err := st.CreateShoot(ctx, "empty")
	if err != nil {
		t.Fatal(err)
	}

	_, err = ContactSheet(shoot, st.Blobs(), filepath.Join(t.TempDir(), "sheet.pdf"))
	if err == nil || !strings.Contains(err.Error(), "no snapshot images") {
		t.Errorf("ContactSheet() on empty shoot error = %v, want no-images error", err)
	}
}
