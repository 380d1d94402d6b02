package suite

import (
	"fmt"

	"github.com/samvad-hq/petfriends/pkg/petfriends"
)

const snippetLen = 200

func expectStatus(resp *petfriends.Response, want int) error {
	if resp.StatusCode != want {
		return fmt.Errorf("status %d, want %d: %s", resp.StatusCode, want, describe(resp.Body))
	}
	return nil
}

func expectContains(resp *petfriends.Response, substr string) error {
	if !resp.Body.Contains(substr) {
		return fmt.Errorf("body does not contain %q: %s", substr, describe(resp.Body))
	}
	return nil
}

// expectFields checks top-level string fields of a JSON body.
func expectFields(resp *petfriends.Response, want map[string]string) error {
	for field, val := range want {
		got, ok := resp.Body.String(field)
		if !ok {
			return fmt.Errorf("field %q missing: %s", field, describe(resp.Body))
		}
		if got != val {
			return fmt.Errorf("field %q = %q, want %q", field, shorten(got), shorten(val))
		}
	}
	return nil
}

func describe(b petfriends.Body) string {
	if b.IsJSON() {
		return b.Snippet(snippetLen)
	}
	return shorten(b.Message())
}

func shorten(s string) string {
	r := []rune(s)
	if len(r) <= snippetLen {
		return s
	}
	return string(r[:snippetLen]) + "..."
}
