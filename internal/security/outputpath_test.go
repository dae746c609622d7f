package security

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"000123", "000123"},
		{"../../etc/passwd", "etc_passwd"},
		{"drive 01/seq#4", "drive_01_seq_4"},
		{"", "unknown"},
		{"...", "unknown"},
		{strings.Repeat("a", 300), strings.Repeat("a", maxNameLen)},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidatePathWithinDirectory(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name      string
		path      string
		wantError bool
	}{
		{"file in dir", filepath.Join(dir, "000001.png"), false},
		{"nested", filepath.Join(dir, "plots", "000001.png"), false},
		{"dir itself", dir, false},
		{"parent", filepath.Join(dir, ".."), true},
		{"sibling", filepath.Join(dir, "..", "other", "x.png"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, dir)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinDirectory(%q) error = %v, wantError %v", tt.path, err, tt.wantError)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	got, err := OutputPath(dir, "../000007", ".png")
	if err != nil {
		t.Fatalf("OutputPath failed: %v", err)
	}
	if want := filepath.Join(dir, "000007.png"); got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
}
