package suite

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
)

const (
	fixturePhoto    = "cat1.jpg"
	fixtureBadPhoto = "foto.txt"
)

// WriteFixtures writes a small JPEG and a plain text file into dir and
// returns their paths.
func WriteFixtures(dir string) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create fixtures dir: %w", err)
	}

	photoPath := filepath.Join(dir, fixturePhoto)
	if err := writeJPEG(photoPath); err != nil {
		return "", "", err
	}

	badPath := filepath.Join(dir, fixtureBadPhoto)
	if err := os.WriteFile(badPath, []byte("this is not a picture of a cat\n"), 0o644); err != nil {
		return "", "", fmt.Errorf("write text fixture: %w", err)
	}
	return photoPath, badPath, nil
}

func writeJPEG(path string) (err error) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create jpeg fixture: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close jpeg fixture: %w", cerr)
		}
	}()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 80}); err != nil {
		return fmt.Errorf("encode jpeg fixture: %w", err)
	}
	return nil
}
