package pipeline

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var sizeTokenRE = regexp.MustCompile(`%[%wh]`)

// ImageSizes looks up the pixel size of local images referenced by URL and
// remembers each answer.
type ImageSizes struct {
	root  string
	sizes map[string][2]string
}

// NewImageSizes resolves URL paths against the document root dir.
func NewImageSizes(root string) *ImageSizes {
	return &ImageSizes{root: root, sizes: make(map[string][2]string)}
}

// Lookup returns the width and height of the image at rawURL as decimal
// strings. URLs with a host, unreadable files and unknown image types give
// empty strings.
func (s *ImageSizes) Lookup(rawURL string) (w, h string) {
	if wh, ok := s.sizes[rawURL]; ok {
		return wh[0], wh[1]
	}
	var wh [2]string
	if u, err := url.Parse(rawURL); err == nil && u.Host == "" && u.Path != "" {
		if p, ok := s.resolve(u.Path); ok {
			if cfg, err := decodeConfig(p); err == nil {
				wh = [2]string{strconv.Itoa(cfg.Width), strconv.Itoa(cfg.Height)}
			}
		}
	}
	s.sizes[rawURL] = wh
	return wh[0], wh[1]
}

// Format substitutes %w, %h and %% in pattern for the image at rawURL.
func (s *ImageSizes) Format(pattern, rawURL string) string {
	w, h := s.Lookup(rawURL)
	return sizeTokenRE.ReplaceAllStringFunc(pattern, func(tok string) string {
		switch tok[1] {
		case 'w':
			return w
		case 'h':
			return h
		default:
			return "%"
		}
	})
}

// resolve maps a URL path to a file under the root.
func (s *ImageSizes) resolve(urlPath string) (string, bool) {
	root := filepath.Clean(s.root)
	p := filepath.Join(root, filepath.FromSlash(urlPath))
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return p, true
}

func decodeConfig(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	return cfg, err
}
