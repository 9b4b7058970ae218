package vault

import (
	"context"
	"errors"
	"testing"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		in        string
		path, key string
		ok        bool
	}{
		{"vault:kv/pagesmith#api_key", "kv/pagesmith", "api_key", true},
		{"vault:secret/a/b/c#dsn", "secret/a/b/c", "dsn", true},
		{"vault:kv/pagesmith", "", "", false},
		{"vault:#key", "", "", false},
		{"vault:kv/x#", "", "", false},
		{"kv/pagesmith#api_key", "", "", false},
	}
	for _, tc := range tests {
		path, key, err := ParseRef(tc.in)
		if (err == nil) != tc.ok || path != tc.path || key != tc.key {
			t.Errorf("ParseRef(%q) = %q, %q, %v", tc.in, path, key, err)
		}
	}
}

func TestSplitMount(t *testing.T) {
	if m, r := splitMount("kv/pagesmith/prod"); m != "kv" || r != "pagesmith/prod" {
		t.Fatalf("got %q %q", m, r)
	}
	if m, r := splitMount("kv"); m != "kv" || r != "" {
		t.Fatalf("got %q %q", m, r)
	}
}

func TestNew_RequiresAddr(t *testing.T) {
	t.Setenv("VAULT_ADDR", "")
	if _, err := New(context.Background(), nil); !errors.Is(err, ErrNoAddr) {
		t.Fatalf("err = %v, want ErrNoAddr", err)
	}
}
