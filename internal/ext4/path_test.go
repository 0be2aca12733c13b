package ext4

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "/", false},
		{"/", "/", false},
		{"/a/b/c", "/a/b/c", false},
		{"/a/./b", "/a/b", false},
		{"/a/b/../c", "/a/c", false},
		{"/a/../../b", "", true},
		{"../a", "", true},
		{"a/b", "a/b", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizePath(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("normalizePath(%q) = %q, want an error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizePath(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizePathIsIdempotent(t *testing.T) {
	inputs := []string{"/a/b/c", "/a/./b/../c", "a/b", "/"}
	for _, in := range inputs {
		once, err := normalizePath(in)
		if err != nil {
			t.Fatalf("normalizePath(%q) failed: %v", in, err)
		}
		twice, err := normalizePath(once)
		if err != nil {
			t.Fatalf("normalizePath(%q) (second pass) failed: %v", once, err)
		}
		if once != twice {
			t.Errorf("normalizePath not idempotent: normalizePath(%q) = %q, normalizePath(that) = %q", in, once, twice)
		}
	}
}
