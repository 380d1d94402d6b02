// Package petfriends is a thin client for the PetFriends REST API. Every call
// is a single round trip whose outcome is returned as a status code plus a
// body that is either decoded JSON or raw text.
package petfriends

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/petfriends/pkg/httpclient"
)

const (
	DefaultBaseURL = "https://petfriends.skillfactory.ru/"

	pathKey          = "api/key"
	pathPets         = "api/pets"
	pathCreateSimple = "api/create_pet_simple"
	pathSetPhoto     = "api/pets/set_photo"

	headerEmail    = "email"
	headerPassword = "password"
	headerAuthKey  = "auth_key"

	fieldName       = "name"
	fieldAnimalType = "animal_type"
	fieldAge        = "age"
	fieldPhoto      = "pet_photo"
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL          string
	HTTPClient       httpclient.Client
	Timeout          time.Duration
	PhotoContentType string
	Logger           Logger
}

// Client issues PetFriends API calls. It holds no per-call state.
type Client struct {
	baseURL     string
	http        httpclient.Client
	contentType string
	log         Logger
}

// New builds a Client.
func New(opts Options) (*Client, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("petfriends: base url %q must be absolute", base)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = httpclient.NewRestyClient(opts.Timeout)
	}

	ct := strings.TrimSpace(opts.PhotoContentType)
	if ct == "" {
		ct = DefaultPhotoContentType
	}

	return &Client{
		baseURL:     strings.TrimRight(base, "/"),
		http:        hc,
		contentType: ct,
		log:         ensureLogger(opts.Logger),
	}, nil
}

// BaseURL returns the normalized base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// GetAPIKey exchanges credentials for an auth key. Wrong credentials come
// back as a 403 with an HTML body, not as an error.
func (c *Client) GetAPIKey(ctx context.Context, email, password string) (*Response, error) {
	return c.do(ctx, httpclient.Request{
		Method: http.MethodGet,
		URL:    c.endpoint(pathKey),
		Headers: map[string]string{
			headerEmail:    email,
			headerPassword: password,
		},
	})
}

// ListPets returns all pets or only the caller's pets. The filter value is
// passed through unchecked.
func (c *Client) ListPets(ctx context.Context, key AuthKey, filter Filter) (*Response, error) {
	return c.do(ctx, httpclient.Request{
		Method:  http.MethodGet,
		URL:     c.endpoint(pathPets),
		Headers: authHeaders(key),
		Query:   map[string]string{"filter": string(filter)},
	})
}

// AddNewPet creates a pet with a photo using a multipart body. A missing
// photo file is returned as an error before anything is sent.
func (c *Client) AddNewPet(ctx context.Context, key AuthKey, pet NewPet, photoPath string) (*Response, error) {
	ph, err := openPhoto(photoPath, c.contentType)
	if err != nil {
		return nil, err
	}
	defer ph.Close()

	return c.do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     c.endpoint(pathPets),
		Headers: authHeaders(key),
		Form:    pet.form(),
		Files:   []httpclient.File{ph.part(fieldPhoto)},
	})
}

// AddNewPetNoPhoto posts the pet fields urlencoded to the photo endpoint,
// which the service rejects with 400.
func (c *Client) AddNewPetNoPhoto(ctx context.Context, key AuthKey, pet NewPet) (*Response, error) {
	return c.do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     c.endpoint(pathPets),
		Headers: authHeaders(key),
		Form:    pet.form(),
	})
}

// CreatePetSimple creates a pet without a photo.
func (c *Client) CreatePetSimple(ctx context.Context, key AuthKey, pet NewPet) (*Response, error) {
	return c.do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     c.endpoint(pathCreateSimple),
		Headers: authHeaders(key),
		Form:    pet.form(),
	})
}

// CreatePetSimpleNoName omits the required name field.
func (c *Client) CreatePetSimpleNoName(ctx context.Context, key AuthKey, animalType, age string) (*Response, error) {
	return c.do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     c.endpoint(pathCreateSimple),
		Headers: authHeaders(key),
		Form: map[string]string{
			fieldAnimalType: animalType,
			fieldAge:        age,
		},
	})
}

// SetPetPhoto replaces the photo of an existing pet.
func (c *Client) SetPetPhoto(ctx context.Context, key AuthKey, petID, photoPath string) (*Response, error) {
	ph, err := openPhoto(photoPath, c.contentType)
	if err != nil {
		return nil, err
	}
	defer ph.Close()

	return c.do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     c.endpoint(pathSetPhoto, url.PathEscape(petID)),
		Headers: authHeaders(key),
		Files:   []httpclient.File{ph.part(fieldPhoto)},
	})
}

// UpdatePetInfo replaces name, animal type and age of a pet.
func (c *Client) UpdatePetInfo(ctx context.Context, key AuthKey, petID string, pet NewPet) (*Response, error) {
	return c.do(ctx, httpclient.Request{
		Method:  http.MethodPut,
		URL:     c.endpoint(pathPets, url.PathEscape(petID)),
		Headers: authHeaders(key),
		Form:    pet.form(),
	})
}

// UpdatePetInfoWithoutType sends an update lacking animal_type.
func (c *Client) UpdatePetInfoWithoutType(ctx context.Context, key AuthKey, petID, name, age string) (*Response, error) {
	return c.do(ctx, httpclient.Request{
		Method:  http.MethodPut,
		URL:     c.endpoint(pathPets, url.PathEscape(petID)),
		Headers: authHeaders(key),
		Form: map[string]string{
			fieldName: name,
			fieldAge:  age,
		},
	})
}

// DeletePet removes one of the caller's pets.
func (c *Client) DeletePet(ctx context.Context, key AuthKey, petID string) (*Response, error) {
	return c.do(ctx, httpclient.Request{
		Method:  http.MethodDelete,
		URL:     c.endpoint(pathPets, url.PathEscape(petID)),
		Headers: authHeaders(key),
	})
}

func (c *Client) do(ctx context.Context, req httpclient.Request) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	raw, err := c.http.Do(ctx, req)
	if err != nil {
		c.log.WarnObj("petfriends request failed", "request_error", map[string]any{
			"method": req.Method,
			"url":    req.URL,
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}

	resp := &Response{
		StatusCode: raw.StatusCode(),
		Body:       ParseBody(raw.Body()),
	}
	c.log.DebugObj("petfriends request completed", "request_meta", map[string]any{
		"method":     req.Method,
		"url":        req.URL,
		"status":     resp.StatusCode,
		"body_kind":  resp.Body.Kind().String(),
		"multipart":  req.Multipart(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return resp, nil
}

func (c *Client) endpoint(parts ...string) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(strings.Trim(p, "/"))
	}
	return b.String()
}

func authHeaders(key AuthKey) map[string]string {
	return map[string]string{headerAuthKey: key.Key}
}
