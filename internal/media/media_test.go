package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
	"github.com/google/go-cmp/cmp"
)

// 1x1 transparent PNG
var png = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{}.Open(context.Background())
	if !errors.Is(err, shared.ErrMediaAccess) {
		t.Errorf("expected ErrMediaAccess, got %v", err)
	}
	if shared.Classify(err) != shared.KindMedia {
		t.Errorf("expected media kind, got %v", shared.Classify(err))
	}
}

func TestGallery(t *testing.T) {
	dir := t.TempDir()
	must := func(name string, data []byte) {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	must("selfie.png", png)
	must("notes.txt", []byte("not an image"))
	must("fake.jpg", []byte("plain text pretending"))
	if err := os.Mkdir(filepath.Join(dir, "album.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	g := NewGallery(dir)

	t.Run("List", func(t *testing.T) {
		got, err := g.List()
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if diff := cmp.Diff([]string{"fake.jpg", "selfie.png"}, got); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("Pick", func(t *testing.T) {
		img, err := g.Pick("selfie.png")
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		if img.ContentType != "image/png" || img.Name != "selfie.png" || img.Ext() != "png" {
			t.Errorf("unexpected image %s %s", img.Name, img.ContentType)
		}

		abs, err := g.Pick(filepath.Join(dir, "selfie.png"))
		if err != nil || len(abs.Data) != len(png) {
			t.Errorf("expected absolute path to work, got %v", err)
		}
	})

	t.Run("Rejects", func(t *testing.T) {
		tc := []struct {
			name string
			path string
			want error
		}{
			{"empty", "", shared.ErrMissingArgument},
			{"missing", "nope.png", shared.ErrInvalidInput},
			{"directory", "album.png", shared.ErrInvalidInput},
			{"not an image", "fake.jpg", shared.ErrInvalidInput},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := g.Pick(tt.path); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("Missing Directory", func(t *testing.T) {
		if _, err := NewGallery(filepath.Join(dir, "gone")).List(); !errors.Is(err, shared.ErrMediaAccess) {
			t.Errorf("expected ErrMediaAccess, got %v", err)
		}
	})
}
