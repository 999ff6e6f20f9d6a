// package media provides image sources for new posts: a camera and a gallery of local files
package media

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
)

// MaxImageBytes bounds a picked image.
const MaxImageBytes = 10 << 20

// Stream is an open camera.
type Stream interface {
	Capture(ctx context.Context) (models.ImageFile, error)
	Close() error
}

// Camera opens a capture stream.
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// Unavailable is the camera of a device that has none.
type Unavailable struct{}

func (Unavailable) Open(context.Context) (Stream, error) {
	return nil, fmt.Errorf("%w: no camera on this terminal", shared.ErrMediaAccess)
}

// Extensions lists the file extensions offered by the gallery.
var Extensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// Gallery picks images from the local filesystem.
type Gallery struct {
	Dir string
}

// NewGallery returns a [Gallery] rooted at dir, or the user's home directory when dir is empty.
func NewGallery(dir string) Gallery {
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = home
		}
	}
	return Gallery{Dir: dir}
}

// Pick reads path, relative to the gallery directory unless absolute, and sniffs its content type.
func (g Gallery) Pick(path string) (models.ImageFile, error) {
	if path == "" {
		return models.ImageFile{}, fmt.Errorf("%w: no file selected", shared.ErrMissingArgument)
	}
	if !filepath.IsAbs(path) && g.Dir != "" {
		path = filepath.Join(g.Dir, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return models.ImageFile{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if info.IsDir() {
		return models.ImageFile{}, fmt.Errorf("%w: %s is a directory", shared.ErrInvalidInput, path)
	}
	if info.Size() > MaxImageBytes {
		return models.ImageFile{}, fmt.Errorf("%w: %s is larger than %d MB", shared.ErrInvalidInput, filepath.Base(path), MaxImageBytes>>20)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.ImageFile{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return models.ImageFile{}, fmt.Errorf("%w: %s is not an image (%s)", shared.ErrInvalidInput, filepath.Base(path), contentType)
	}
	return models.ImageFile{Name: filepath.Base(path), ContentType: contentType, Data: data}, nil
}

// List returns the image files directly under the gallery directory, sorted by name.
func (g Gallery) List() ([]string, error) {
	entries, err := os.ReadDir(g.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMediaAccess, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(Extensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}
