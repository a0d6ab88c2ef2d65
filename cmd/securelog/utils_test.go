package securelog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/onboardbase/securelog/internal/detectors"
	"github.com/rs/zerolog"
)

func TestPickHelpers(t *testing.T) {
	local, global := "local", "global"
	if got := pickString("cli", &local, &global); got != "cli" {
		t.Fatalf("cli should win, got %q", got)
	}
	if got := pickString("", &local, &global); got != "local" {
		t.Fatalf("local should win, got %q", got)
	}
	if got := pickString("", nil, &global); got != "global" {
		t.Fatalf("global should be used, got %q", got)
	}
	three := 3
	if got := pickInt(0, nil, &three); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	f := false
	tr := true
	if pickBool(false, &f, &tr) {
		t.Fatal("explicit local false should win over global")
	}
	if !pickBool(true, &f, nil) {
		t.Fatal("cli true should win")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" pre, code ,,script ")
	if len(got) != 3 || got[0] != "pre" || got[2] != "script" {
		t.Fatalf("unexpected split: %v", got)
	}
	if splitList("") != nil {
		t.Fatal("empty input should give nil")
	}
}

func TestDisplayPath(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if got := displayPath(filepath.Join(wd, "a", "b.html")); got != "a/b.html" {
		t.Fatalf("expected relative path, got %q", got)
	}
	outside := filepath.Join(filepath.Dir(wd), "x.html")
	if got := displayPath(outside); got != outside {
		t.Fatalf("paths outside the working directory are kept, got %q", got)
	}
}

func TestSetupLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if err := setupLogging("debug"); err != nil {
		t.Fatal(err)
	}
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug, got %s", zerolog.GlobalLevel())
	}
	if err := setupLogging("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestSelectPattern(t *testing.T) {
	if got := selectPattern(detectors.Default(), "paystack"); len(got) != 1 {
		t.Fatalf("expected Paystack by case-insensitive name, got %d", len(got))
	}
	if got := selectPattern(detectors.Default(), "nope"); got != nil {
		t.Fatalf("expected nil for unknown name, got %v", got)
	}
}

func TestLintCatalog(t *testing.T) {
	if err := lintCatalog(detectors.Default(), detectors.Version()); err != nil {
		t.Fatalf("bundled catalog should lint clean: %v", err)
	}
}

func TestDefaultFileConfig(t *testing.T) {
	fc := defaultFileConfig()
	if fc.MaxDepth == nil || *fc.MaxDepth != 10 {
		t.Fatal("expected default max depth 10")
	}
	if d, err := fc.Timeout(); err != nil || d.String() != "5s" {
		t.Fatalf("expected 5s timeout, got %v %v", d, err)
	}
}
