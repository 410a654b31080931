package raster

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

type faceKey struct {
	size float64
	bold bool
	mono bool
}

// faceCache parses the Go font family once and keeps one face per size and weight.
type faceCache struct {
	once  sync.Once
	err   error
	fonts map[[2]bool]*opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

func newFaceCache() *faceCache {
	return &faceCache{faces: make(map[faceKey]font.Face)}
}

func (c *faceCache) load() error {
	c.once.Do(func() {
		sources := map[[2]bool][]byte{
			{false, false}: goregular.TTF,
			{true, false}:  gobold.TTF,
			{false, true}:  gomono.TTF,
			{true, true}:   gomonobold.TTF,
		}
		c.fonts = make(map[[2]bool]*opentype.Font, len(sources))
		for k, ttf := range sources {
			f, err := opentype.Parse(ttf)
			if err != nil {
				c.err = fmt.Errorf("parse font: %w", err)
				return
			}
			c.fonts[k] = f
		}
	})
	return c.err
}

// Face returns the face for size in device pixels.
func (c *faceCache) Face(size float64, bold, mono bool) (font.Face, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	key := faceKey{size: size, bold: bold, mono: mono}

	c.mu.Lock()
	defer c.mu.Unlock()
	if face, ok := c.faces[key]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(c.fonts[[2]bool{bold, mono}], &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	c.faces[key] = face
	return face, nil
}
