package document

import (
	"fmt"
	"io/fs"
	"os"

	"engagement/internal/domain"
)

// AssetSource provides the binary assets of an agreement.
type AssetSource interface {
	Font() ([]byte, error)
	Logo() ([]byte, error)
}

// DirAssets reads the signature font and the logo from a file system on
// every call, so replacing a file takes effect on the next document.
type DirAssets struct {
	FS       fs.FS
	FontPath string
	LogoPath string
}

// NewDirAssets reads assets from the directory dir.
func NewDirAssets(dir, fontPath, logoPath string) DirAssets {
	return DirAssets{FS: os.DirFS(dir), FontPath: fontPath, LogoPath: logoPath}
}

// Font returns the signature TrueType font.
func (a DirAssets) Font() ([]byte, error) { return a.read(a.FontPath) }

// Logo returns the PNG logo.
func (a DirAssets) Logo() ([]byte, error) { return a.read(a.LogoPath) }

func (a DirAssets) read(name string) ([]byte, error) {
	if a.FS == nil {
		return nil, fmt.Errorf("%w: no asset directory for %s", domain.ErrAsset, name)
	}
	b, err := fs.ReadFile(a.FS, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAsset, err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrAsset, name)
	}
	return b, nil
}
