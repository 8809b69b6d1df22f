package captions

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFont(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("font"), 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}
	return path
}

// TestResolveFontPathPrefersStyledFace uses the style's own font when it is
// installed in the font directory.
func TestResolveFontPathPrefersStyledFace(t *testing.T) {
	dir := t.TempDir()
	want := writeFont(t, dir, "Montserrat-ExtraBold.ttf")
	writeFont(t, dir, "DejaVuSans.ttf")

	got, err := resolveFontPath(dir, "Montserrat-ExtraBold.ttf")
	if err != nil {
		t.Fatalf("resolveFontPath: %v", err)
	}
	if got != want {
		t.Fatalf("font = %s, want %s", got, want)
	}
}

// TestResolveFontPathFallsBackToInstalledFace picks whatever face the font
// directory ships when the styled one is missing, instead of failing the
// whole caption render.
func TestResolveFontPathFallsBackToInstalledFace(t *testing.T) {
	dir := t.TempDir()
	want := writeFont(t, dir, "DejaVuSans.ttf")
	writeFont(t, dir, "readme.txt")

	got, err := resolveFontPath(dir, "Inter-SemiBold.ttf")
	if err != nil {
		t.Fatalf("resolveFontPath: %v", err)
	}
	if got != want {
		t.Fatalf("font = %s, want fallback %s", got, want)
	}
}

// TestResolveFontPathEmptyDir errors when no font file exists at all.
func TestResolveFontPathEmptyDir(t *testing.T) {
	dir := t.TempDir()
	if _, err := resolveFontPath(dir, "Inter-SemiBold.ttf"); err == nil {
		t.Fatal("expected error for font-less directory")
	}
}
