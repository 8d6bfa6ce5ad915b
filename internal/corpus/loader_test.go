package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kotae/internal/models"
)

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "all_content.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_sectionedPage(t *testing.T) {
	path := writeCorpus(t, `[
		{
			"url": "https://wiki.example.com/display/QB14/Triggers",
			"title": "Build Triggers",
			"breadcrumb": ["QuickBuild", "User Guide", "Triggers"],
			"full_text": "ignored when sections exist",
			"sections": [
				{"header": "Overview", "content": "Triggers start builds automatically."},
				{"header": "Empty", "content": "   \n\t"},
				{"header": "Schedules", "content": "Cron expressions define schedules."}
			]
		}
	]`)
	chunks, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks (whitespace section skipped), got %d", len(chunks))
	}
	first := chunks[0]
	if first.Title != "Build Triggers" || first.SectionHeader != "Overview" {
		t.Errorf("unexpected first chunk: %+v", first)
	}
	if first.Breadcrumb != "QuickBuild > User Guide > Triggers" {
		t.Errorf("breadcrumb = %q", first.Breadcrumb)
	}
	wantCtx := "Page: Build Triggers\nSection: Overview\nContent: Triggers start builds automatically."
	if first.FullContext != wantCtx {
		t.Errorf("full_context = %q, want %q", first.FullContext, wantCtx)
	}
	if chunks[1].SectionHeader != "Schedules" {
		t.Errorf("second chunk header = %q", chunks[1].SectionHeader)
	}
}

func TestLoad_unsectionedPageUsesFullText(t *testing.T) {
	path := writeCorpus(t, `[
		{
			"url": "https://wiki.example.com/display/QB14/About",
			"title": "About",
			"breadcrumb": ["QuickBuild"],
			"full_text": "QuickBuild is a build server.",
			"sections": []
		}
	]`)
	chunks, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.SectionHeader != models.FullPageSection {
		t.Errorf("section header = %q, want %q", c.SectionHeader, models.FullPageSection)
	}
	wantCtx := "Page: About\nContent: QuickBuild is a build server."
	if c.FullContext != wantCtx {
		t.Errorf("full_context = %q, want %q", c.FullContext, wantCtx)
	}
}

func TestLoad_skipsEmptyPages(t *testing.T) {
	path := writeCorpus(t, `[
		{"url": "u1", "title": "Empty", "breadcrumb": [], "full_text": "  ", "sections": []},
		{"url": "u2", "title": "Blank sections", "breadcrumb": [], "full_text": "", "sections": [
			{"header": "A", "content": ""}
		]}
	]`)
	chunks, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestLoad_missingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for missing corpus file")
	}
}

func TestLoad_malformedJSON(t *testing.T) {
	path := writeCorpus(t, `{"not": "an array"`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for malformed corpus file")
	}
}
