package images

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/matome/internal/storage"
)

const inputDir = "daily"

func testResolver(t *testing.T, files ...string) *Resolver {
	t.Helper()
	vaultDir := t.TempDir()
	for _, f := range files {
		p := filepath.Join(vaultDir, inputDir, f)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("img"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return NewResolver(store, inputDir)
}

func TestResolve_BothSyntaxes(t *testing.T) {
	r := testResolver(t, "a.png", "b.jpg")
	refs, missing := r.Resolve("see ![alt](a.png) and ![[b.jpg]]")
	if len(missing) != 0 {
		t.Fatalf("missing = %v", missing)
	}
	if len(refs) != 2 {
		t.Fatalf("len(refs) = %d, want 2", len(refs))
	}
	if refs[0].Source != "daily/a.png" || refs[1].Source != "daily/b.jpg" {
		t.Errorf("refs = %+v", refs)
	}
}

func TestResolve_OrderOfFirstAppearance(t *testing.T) {
	r := testResolver(t, "a.png", "b.png")
	refs, _ := r.Resolve("![[b.png]] then ![x](a.png) then ![[b.png]]")
	if len(refs) != 2 {
		t.Fatalf("len(refs) = %d, want 2", len(refs))
	}
	if refs[0].Raw != "b.png" || refs[1].Raw != "a.png" {
		t.Errorf("order = %q, %q", refs[0].Raw, refs[1].Raw)
	}
}

func TestResolve_DedupByResolvedPath(t *testing.T) {
	r := testResolver(t, "photo.png")
	// Extensionless wiki ref and explicit ref resolve to the same file.
	refs, _ := r.Resolve("![[photo]] and ![p](photo.png)")
	if len(refs) != 1 {
		t.Fatalf("len(refs) = %d, want 1", len(refs))
	}
	if refs[0].Source != "daily/photo.png" {
		t.Errorf("source = %q", refs[0].Source)
	}
}

func TestResolve_ExtensionProbe(t *testing.T) {
	r := testResolver(t, "shot.webp")
	refs, missing := r.Resolve("![[shot]]")
	if len(missing) != 0 || len(refs) != 1 {
		t.Fatalf("refs = %v, missing = %v", refs, missing)
	}
	if refs[0].Source != "daily/shot.webp" {
		t.Errorf("source = %q", refs[0].Source)
	}
}

func TestResolve_MissingReported(t *testing.T) {
	r := testResolver(t)
	refs, missing := r.Resolve("![[gone.png]]")
	if len(refs) != 0 {
		t.Errorf("refs = %v", refs)
	}
	if len(missing) != 1 || missing[0] != "gone.png" {
		t.Errorf("missing = %v", missing)
	}
}

func TestResolve_ExternalURLSkipped(t *testing.T) {
	r := testResolver(t)
	refs, missing := r.Resolve("![remote](https://example.com/a.png)")
	if len(refs) != 0 || len(missing) != 0 {
		t.Errorf("refs = %v, missing = %v", refs, missing)
	}
}

func TestResolve_FragmentAndQueryStripped(t *testing.T) {
	r := testResolver(t, "c.png")
	refs, _ := r.Resolve("![c](c.png#section) ![c](c.png?v=2)")
	if len(refs) != 1 {
		t.Fatalf("len(refs) = %d, want 1", len(refs))
	}
	if refs[0].Source != "daily/c.png" {
		t.Errorf("source = %q", refs[0].Source)
	}
}

func TestResolve_WikiSizeSuffixStripped(t *testing.T) {
	r := testResolver(t, "wide.png")
	refs, _ := r.Resolve("![[wide.png|300]]")
	if len(refs) != 1 || refs[0].Source != "daily/wide.png" {
		t.Errorf("refs = %v", refs)
	}
}

func TestResolve_Subdirectory(t *testing.T) {
	r := testResolver(t, "assets/deep.png")
	refs, _ := r.Resolve("![[assets/deep.png]]")
	if len(refs) != 1 || refs[0].Source != "daily/assets/deep.png" {
		t.Errorf("refs = %v", refs)
	}
}
