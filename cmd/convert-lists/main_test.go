package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_ConvertsList(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.html")
	if err := os.WriteFile(p, []byte("<div class=\"article-content\">\n1. a\n2. b\n</div>"), 0o644); err != nil {
		t.Fatal(err)
	}
	var out, errOut bytes.Buffer
	if code := run([]string{p}, &out, &errOut); code != 0 {
		t.Fatalf("exit %d\n%s", code, out.String())
	}
	b, _ := os.ReadFile(p)
	want := "<div class=\"article-content\">\n<ol>\n  <li>a</li>\n  <li>b</li>\n</ol>\n</div>"
	if string(b) != want {
		t.Fatalf("got %q", b)
	}
	if !strings.Contains(out.String(), "Converted 1 numbered list blocks") || !strings.Contains(out.String(), "100.0%") {
		t.Fatalf("output:\n%s", out.String())
	}
}

func TestRun_SingleLineUntouched(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.html")
	src := "<p>x</p>\n1. only\n"
	_ = os.WriteFile(p, []byte(src), 0o644)
	var out, errOut bytes.Buffer
	if code := run([]string{p}, &out, &errOut); code != 0 {
		t.Fatalf("exit %d", code)
	}
	if b, _ := os.ReadFile(p); string(b) != src {
		t.Fatalf("single line must not be converted: %q", b)
	}
}

func TestPreview(t *testing.T) {
	if got := preview("あいうえお", 3); got != "あいう..." {
		t.Fatalf("preview %q", got)
	}
}
