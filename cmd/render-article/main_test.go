package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_RendersIntoArticleDir(t *testing.T) {
	root := t.TempDir()
	draft := filepath.Join(root, "draft.md")
	if err := os.WriteFile(draft, []byte("# 見出し\n\n本文 **強調**\n\n1. a\n2. b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var out, errOut bytes.Buffer
	if code := run([]string{"-article", "3", "-output", root, draft}, &out, &errOut); code != 0 {
		t.Fatalf("exit %d\n%s\n%s", code, out.String(), errOut.String())
	}
	b, err := os.ReadFile(filepath.Join(root, "3", "final_article.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "<div class=\"article-content\">") || !strings.Contains(string(b), "<strong>強調</strong>") {
		t.Fatalf("html:\n%s", b)
	}
	if !strings.Contains(out.String(), "Title: 見出し") || !strings.Contains(out.String(), "passes validation") {
		t.Fatalf("output:\n%s", out.String())
	}
}

func TestRun_Errors(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"draft.md"}, &out, &errOut); code != 2 {
		t.Fatalf("missing target: exit %d", code)
	}
	if code := run([]string{"-html", filepath.Join(t.TempDir(), "a.html"), filepath.Join(t.TempDir(), "missing.md")}, &out, &errOut); code != 1 {
		t.Fatalf("missing draft: exit %d", code)
	}
}
