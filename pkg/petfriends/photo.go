package petfriends

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/samvad-hq/petfriends/pkg/httpclient"
)

const (
	// DefaultPhotoContentType is sent for every upload unless configured otherwise.
	DefaultPhotoContentType = "image/jpeg"
	// PhotoContentTypeAuto derives the part type from the file itself.
	PhotoContentTypeAuto = "auto"

	sniffLen = 512
)

// photo is an opened upload payload. Close must be called once the request
// has completed.
type photo struct {
	file        *os.File
	name        string
	contentType string
}

func openPhoto(path, contentType string) (*photo, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("photo path is empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open photo: %w", err)
	}
	ct, err := resolveContentType(f, path, contentType)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &photo{file: f, name: filepath.Base(path), contentType: ct}, nil
}

func (p *photo) Close() error {
	if p == nil || p.file == nil {
		return nil
	}
	return p.file.Close()
}

func (p *photo) part(field string) httpclient.File {
	return httpclient.File{
		Field:       field,
		Name:        p.name,
		ContentType: p.contentType,
		Reader:      p.file,
	}
}

func resolveContentType(f *os.File, path, configured string) (string, error) {
	configured = strings.TrimSpace(configured)
	switch {
	case configured == "":
		return DefaultPhotoContentType, nil
	case !strings.EqualFold(configured, PhotoContentTypeAuto):
		return configured, nil
	}

	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct, nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("sniff photo: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind photo: %w", err)
	}
	return http.DetectContentType(head[:n]), nil
}
