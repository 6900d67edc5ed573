package logfiles

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/squeezestats/internal/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestListSortsXMLDocuments(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.xml", "a.XML", "notes.txt", "c.xml"} {
		writeFile(t, filepath.Join(dir, name), "<data/>")
	}
	if err := os.Mkdir(filepath.Join(dir, "old.xml"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	paths, err := List(dir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	if strings.Join(names, ",") != "a.XML,b.xml,c.xml" {
		t.Fatalf("unexpected documents %v", names)
	}
}

func TestListMissingDirectory(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRepairWrapsMissingRoot(t *testing.T) {
	dir := t.TempDir()
	bare := filepath.Join(dir, "bare.xml")
	writeFile(t, bare, "<song><title>A</title></song>")
	rooted := filepath.Join(dir, "rooted.xml")
	writeFile(t, rooted, "<DATA >\n<song/></DATA>")

	results, err := Repair(dir)
	if err != nil {
		t.Fatalf("Repair failed: %v", err)
	}
	if len(results) != 2 || results[0].Status != Repaired || results[1].Status != Skipped {
		t.Fatalf("unexpected results %+v", results)
	}
	got, err := os.ReadFile(bare)
	if err != nil {
		t.Fatalf("read repaired: %v", err)
	}
	if string(got) != "<data>\n<song><title>A</title></song>\n</data>" {
		t.Fatalf("unexpected repaired content %q", got)
	}

	// A second pass leaves everything alone.
	results, err = Repair(dir)
	if err != nil {
		t.Fatalf("Repair failed: %v", err)
	}
	for _, r := range results {
		if r.Status != Skipped {
			t.Fatalf("expected idempotent repair, got %+v", r)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected no temp files left behind, got %d entries", len(entries))
	}
}

func TestRepairKeepsDeclarationFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decl.xml")
	writeFile(t, path, `<?xml version="1.0" encoding="UTF-8"?><song/>`)
	status, err := RepairFile(path)
	if err != nil || status != Repaired {
		t.Fatalf("RepairFile: %v %v", status, err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read repaired: %v", err)
	}
	want := "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<data>\n<song/>\n</data>"
	if string(got) != want {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestRepairFileMissing(t *testing.T) {
	status, err := RepairFile(filepath.Join(t.TempDir(), "gone.xml"))
	if status != Failed || !errors.Is(err, model.ErrDocumentNotFound) {
		t.Fatalf("expected not-found failure, got %v %v", status, err)
	}
}
