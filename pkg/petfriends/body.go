package petfriends

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BodyKind tags how a response body was interpreted.
type BodyKind int

const (
	BodyText BodyKind = iota
	BodyJSON
)

func (k BodyKind) String() string {
	if k == BodyJSON {
		return "json"
	}
	return "text"
}

// ErrNotJSON is returned by Decode when the body fell back to raw text.
var ErrNotJSON = errors.New("petfriends: body is not json")

// Body is either a decoded JSON value or the raw text the server sent.
// Error responses from the service are usually HTML, so callers must check
// Kind (or the status code) before assuming a shape.
type Body struct {
	kind  BodyKind
	raw   []byte
	value any
}

// ParseBody interprets raw as JSON and falls back to text on failure.
func ParseBody(raw []byte) Body {
	b := Body{kind: BodyText, raw: raw}
	if len(bytes.TrimSpace(raw)) == 0 {
		return b
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return b
	}
	b.kind = BodyJSON
	b.value = v
	return b
}

func (b Body) Kind() BodyKind { return b.kind }
func (b Body) IsJSON() bool   { return b.kind == BodyJSON }

// JSON returns the decoded value and true for JSON bodies.
func (b Body) JSON() (any, bool) {
	if b.kind != BodyJSON {
		return nil, false
	}
	return b.value, true
}

// Text returns the body exactly as received.
func (b Body) Text() string { return string(b.raw) }

// Raw returns the undecoded bytes.
func (b Body) Raw() []byte { return b.raw }

// Contains reports whether the raw body contains substr.
func (b Body) Contains(substr string) bool {
	return strings.Contains(string(b.raw), substr)
}

// Decode unmarshals a JSON body into v.
func (b Body) Decode(v any) error {
	if b.kind != BodyJSON {
		return ErrNotJSON
	}
	if err := json.Unmarshal(b.raw, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// Field returns a top-level field of a JSON object body.
func (b Body) Field(name string) (any, bool) {
	obj, ok := b.value.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := obj[name]
	return v, ok
}

// String returns a top-level field rendered as a string. Numbers are
// formatted the way the service echoes form values.
func (b Body) String(name string) (string, bool) {
	v, ok := b.Field(name)
	if !ok || v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return fmt.Sprintf("%t", val), true
	default:
		return "", false
	}
}

// Message returns a short human readable form of the body. HTML error pages
// are reduced to their title, or visible text when there is no title.
func (b Body) Message() string {
	text := strings.TrimSpace(string(b.raw))
	if b.kind == BodyJSON || !looksLikeHTML(text) {
		return text
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.Join(strings.Fields(doc.Find("body").Text()), " ")
}

// Snippet returns at most n bytes of the raw body, trimmed.
func (b Body) Snippet(n int) string {
	raw := b.raw
	if n > 0 && len(raw) > n {
		raw = raw[:n]
	}
	return strings.TrimSpace(string(raw))
}

func looksLikeHTML(s string) bool {
	if !strings.HasPrefix(s, "<") {
		return false
	}
	lower := strings.ToLower(s)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype") ||
		strings.Contains(lower, "<title") || strings.Contains(lower, "<h1")
}

// Response is the normalized outcome of one call.
type Response struct {
	StatusCode int
	Body       Body
}

// OK reports a 200 status.
func (r *Response) OK() bool { return r != nil && r.StatusCode == 200 }

// AuthKey decodes the body of a GetAPIKey response.
func (r *Response) AuthKey() (AuthKey, error) {
	var key AuthKey
	if err := r.Body.Decode(&key); err != nil {
		return AuthKey{}, err
	}
	if !key.Valid() {
		return AuthKey{}, fmt.Errorf("petfriends: response has no key field")
	}
	return key, nil
}

// Pet decodes a single pet record.
func (r *Response) Pet() (Pet, error) {
	var p Pet
	if err := r.Body.Decode(&p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// Pets decodes a GET api/pets envelope.
func (r *Response) Pets() (PetList, error) {
	var l PetList
	if err := r.Body.Decode(&l); err != nil {
		return PetList{}, err
	}
	return l, nil
}
