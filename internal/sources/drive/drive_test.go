package drive

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"google.golang.org/api/googleapi"

	"patrimonio/internal/core"
)

func TestNameQuery(t *testing.T) {
	got := nameQuery("folder1", "it's.json")
	want := `name = 'it\'s.json' and 'folder1' in parents and trashed = false`
	if got != want {
		t.Fatalf("nameQuery = %q, want %q", got, want)
	}
}

func TestMapError(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		unauth bool
	}{
		{"unauthorized", &googleapi.Error{Code: http.StatusUnauthorized}, true},
		{"forbidden", fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusForbidden}), true},
		{"server", &googleapi.Error{Code: http.StatusInternalServerError}, false},
		{"transport", errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := mapError("op", tc.err)
			if errors.Is(err, core.ErrUnauthorized) != tc.unauth {
				t.Fatalf("mapError(%v) = %v", tc.err, err)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(&googleapi.Error{Code: http.StatusNotFound}) {
		t.Fatal("404 should be not found")
	}
	if isNotFound(errors.New("boom")) {
		t.Fatal("plain error is not a 404")
	}
}

func TestCredentials(t *testing.T) {
	if b, err := credentials(Config{CredentialsJSON: `{"a":1}`, CredentialsFile: "/nope"}); err != nil || string(b) != `{"a":1}` {
		t.Fatalf("inline json: %q %v", b, err)
	}

	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if b, err := credentials(Config{CredentialsFile: path}); err != nil || string(b) != `{}` {
		t.Fatalf("file: %q %v", b, err)
	}

	if _, err := credentials(Config{}); err == nil {
		t.Fatal("expected error without credentials")
	}
}
