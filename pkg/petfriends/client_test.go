package petfriends

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samvad-hq/petfriends/pkg/httpclient"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func writePhoto(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write photo: %v", err)
	}
	return path
}

func TestGetAPIKeySendsCredentialHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/key" || r.Method != http.MethodGet {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("email") != "a@b.c" || r.Header.Get("password") != "pw" {
			t.Errorf("missing credential headers: %v", r.Header)
		}
		_, _ = io.WriteString(w, `{"key":"abc"}`)
	})

	resp, err := c.GetAPIKey(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("GetAPIKey: %v", err)
	}
	if !resp.OK() {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	key, err := resp.AuthKey()
	if err != nil || key.Key != "abc" {
		t.Fatalf("AuthKey = %+v, %v", key, err)
	}
}

func TestGetAPIKeyForbiddenIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "<!doctype html><title>403 Forbidden</title><h1>Forbidden</h1>")
	})

	resp, err := c.GetAPIKey(context.Background(), "x", "y")
	if err != nil {
		t.Fatalf("GetAPIKey: %v", err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Body.IsJSON() || !resp.Body.Contains("Forbidden") {
		t.Fatalf("expected text body with Forbidden, got %q", resp.Body.Text())
	}
	if _, err := resp.AuthKey(); !errors.Is(err, ErrNotJSON) {
		t.Fatalf("expected ErrNotJSON, got %v", err)
	}
}

func TestListPetsPassesFilterThrough(t *testing.T) {
	var gotFilter string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("auth_key") != "k" {
			t.Errorf("auth_key = %q", r.Header.Get("auth_key"))
		}
		gotFilter = r.URL.Query().Get("filter")
		_, _ = io.WriteString(w, `{"pets":[{"id":"p1","name":"Rex","animal_type":"dog","age":3}]}`)
	})

	resp, err := c.ListPets(context.Background(), AuthKey{Key: "k"}, FilterMyPets)
	if err != nil {
		t.Fatalf("ListPets: %v", err)
	}
	if gotFilter != "my_pets" {
		t.Fatalf("filter = %q", gotFilter)
	}
	list, err := resp.Pets()
	if err != nil {
		t.Fatalf("Pets: %v", err)
	}
	if len(list.Pets) != 1 || !list.Contains("p1") || list.Pets[0].Age != "3" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestAddNewPetUploadsMultipart(t *testing.T) {
	photo := writePhoto(t, "cat1.jpg", "jpeg")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/pets" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		_, hdr, err := r.FormFile("pet_photo")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		if ct := hdr.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("photo content type = %q", ct)
		}
		_, _ = io.WriteString(w, `{"id":"new","name":"`+r.FormValue("name")+`","animal_type":"`+
			r.FormValue("animal_type")+`","age":"`+r.FormValue("age")+`"}`)
	})

	resp, err := c.AddNewPet(context.Background(), AuthKey{Key: "k"}, NewPet{Name: "der", AnimalType: "cat", Age: "4"}, photo)
	if err != nil {
		t.Fatalf("AddNewPet: %v", err)
	}
	pet, err := resp.Pet()
	if err != nil {
		t.Fatalf("Pet: %v", err)
	}
	if pet.Name != "der" || pet.AnimalType != "cat" || pet.Age != "4" {
		t.Fatalf("unexpected pet %+v", pet)
	}
}

func TestAddNewPetMissingPhotoFails(t *testing.T) {
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Errorf("request should not be sent")
	})

	_, err := c.AddNewPet(context.Background(), AuthKey{Key: "k"}, NewPet{Name: "x"}, filepath.Join(t.TempDir(), "nope.jpg"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

// readerTransport reads from each upload during the call and keeps the
// readers so the test can inspect them after the client returns.
type readerTransport struct {
	readers []io.Reader
	readErr error
	err     error
}

func (r *readerTransport) Do(_ context.Context, req httpclient.Request) (httpclient.Response, error) {
	for _, f := range req.Files {
		r.readers = append(r.readers, f.Reader)
		if _, err := f.Reader.Read(make([]byte, 1)); err != nil {
			r.readErr = err
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return stubResponse{status: 200, body: `{"id":"p1"}`}, nil
}

func TestUploadsReleasePhotoAfterCall(t *testing.T) {
	photo := writePhoto(t, "cat.jpg", "\xff\xd8\xff\xe0 not really a jpeg")
	calls := map[string]func(c *Client) (*Response, error){
		"add_new_pet": func(c *Client) (*Response, error) {
			return c.AddNewPet(context.Background(), AuthKey{Key: "k"}, NewPet{Name: "der", AnimalType: "cat", Age: "4"}, photo)
		},
		"set_photo": func(c *Client) (*Response, error) {
			return c.SetPetPhoto(context.Background(), AuthKey{Key: "k"}, "p1", photo)
		},
	}

	for name, call := range calls {
		for _, transportErr := range []error{nil, errors.New("connection reset")} {
			t.Run(fmt.Sprintf("%s/err=%v", name, transportErr), func(t *testing.T) {
				transport := &readerTransport{err: transportErr}
				c, err := New(Options{BaseURL: "https://pets.example", HTTPClient: transport})
				if err != nil {
					t.Fatalf("New: %v", err)
				}

				_, err = call(c)
				if transportErr == nil && err != nil {
					t.Fatalf("call: %v", err)
				}
				if transportErr != nil && !errors.Is(err, transportErr) {
					t.Fatalf("expected transport error, got %v", err)
				}
				if transport.readErr != nil {
					t.Fatalf("photo not readable during the call: %v", transport.readErr)
				}
				if len(transport.readers) != 1 {
					t.Fatalf("expected one upload, got %d", len(transport.readers))
				}
				if _, err := transport.readers[0].Read(make([]byte, 1)); !errors.Is(err, os.ErrClosed) {
					t.Fatalf("expected photo closed after return, read gave %v", err)
				}
			})
		}
	}
}

func TestFormEncodedVariantsOmitFields(t *testing.T) {
	tests := []struct {
		name    string
		call    func(c *Client) (*Response, error)
		method  string
		path    string
		present []string
		absent  []string
	}{
		{
			name: "no photo",
			call: func(c *Client) (*Response, error) {
				return c.AddNewPetNoPhoto(context.Background(), AuthKey{Key: "k"}, NewPet{Name: "www", AnimalType: "cot", Age: "2"})
			},
			method:  http.MethodPost,
			path:    "/api/pets",
			present: []string{"name", "animal_type", "age"},
		},
		{
			name: "simple without name",
			call: func(c *Client) (*Response, error) {
				return c.CreatePetSimpleNoName(context.Background(), AuthKey{Key: "k"}, "cot", "10")
			},
			method:  http.MethodPost,
			path:    "/api/create_pet_simple",
			present: []string{"animal_type", "age"},
			absent:  []string{"name"},
		},
		{
			name: "update without type",
			call: func(c *Client) (*Response, error) {
				return c.UpdatePetInfoWithoutType(context.Background(), AuthKey{Key: "k"}, "1", "www", "2")
			},
			method:  http.MethodPut,
			path:    "/api/pets/1",
			present: []string{"name", "age"},
			absent:  []string{"animal_type"},
		},
		{
			name: "update",
			call: func(c *Client) (*Response, error) {
				return c.UpdatePetInfo(context.Background(), AuthKey{Key: "k"}, "p1", NewPet{Name: "Мурзик", AnimalType: "Котэ", Age: "5"})
			},
			method:  http.MethodPut,
			path:    "/api/pets/p1",
			present: []string{"name", "animal_type", "age"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != tt.method || r.URL.Path != tt.path {
					t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
				}
				if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
					t.Errorf("content type = %q", ct)
				}
				if err := r.ParseForm(); err != nil {
					t.Errorf("ParseForm: %v", err)
				}
				for _, f := range tt.present {
					if !r.PostForm.Has(f) {
						t.Errorf("missing field %q", f)
					}
				}
				for _, f := range tt.absent {
					if r.PostForm.Has(f) {
						t.Errorf("unexpected field %q", f)
					}
				}
				w.WriteHeader(http.StatusBadRequest)
			})
			resp, err := tt.call(c)
			if err != nil {
				t.Fatalf("call: %v", err)
			}
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d", resp.StatusCode)
			}
		})
	}
}

func TestDeletePetUsesResourcePath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/pets/p9" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	})

	resp, err := c.DeletePet(context.Background(), AuthKey{Key: "k"}, "p9")
	if err != nil {
		t.Fatalf("DeletePet: %v", err)
	}
	if !resp.OK() || resp.Body.Text() != "" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

// stubTransport records the last request and replays a canned response.
type stubTransport struct {
	last httpclient.Request
	resp stubResponse
	err  error
}

type stubResponse struct {
	status int
	body   string
}

func (s stubResponse) Body() []byte         { return []byte(s.body) }
func (s stubResponse) StatusCode() int      { return s.status }
func (s stubResponse) Header(string) string { return "" }

func (s *stubTransport) Do(_ context.Context, req httpclient.Request) (httpclient.Response, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func TestClientUsesInjectedTransport(t *testing.T) {
	stub := &stubTransport{resp: stubResponse{status: 200, body: `{"pets":[]}`}}
	c, err := New(Options{BaseURL: "https://pets.example/", HTTPClient: stub})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := c.ListPets(context.Background(), AuthKey{Key: "k"}, FilterAll); err != nil {
		t.Fatalf("ListPets: %v", err)
	}
	if stub.last.URL != "https://pets.example/api/pets" {
		t.Fatalf("url = %q", stub.last.URL)
	}
	if v, ok := stub.last.Query["filter"]; !ok || v != "" {
		t.Fatalf("expected empty filter param, got %v", stub.last.Query)
	}
}

func TestClientWrapsTransportErrors(t *testing.T) {
	boom := errors.New("connection refused")
	c, err := New(Options{HTTPClient: &stubTransport{err: boom}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.DeletePet(context.Background(), AuthKey{Key: "k"}, "1"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	if _, err := New(Options{BaseURL: "petfriends.local"}); err == nil {
		t.Fatalf("expected error for relative base url")
	}
}
