package view

import (
	"regexp"
	"strings"
	"testing"

	tuitheme "github.com/glabrego/gallery-cli/internal/tui/theme"
)

var ansiStrip = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiStrip.ReplaceAllString(s, "")
}

func TestToolbar(t *testing.T) {
	if got := Toolbar(false); !strings.Contains(got, "hjkl move") {
		t.Fatalf("unexpected compact toolbar: %q", got)
	}
	if got := Toolbar(true); !strings.Contains(got, "E: expand all") {
		t.Fatalf("unexpected verbose toolbar: %q", got)
	}
}

func TestFooter(t *testing.T) {
	th := tuitheme.Default()
	got := stripANSI(Footer(FooterInput{
		Label:           "search: cats",
		Items:           12345,
		Rendered:        26,
		Pages:           3,
		AtEnd:           true,
		CanLoadPrevious: true,
		ExpandByDefault: true,
		HistoryDepth:    2,
	}, th))
	for _, want := range []string{"search: cats", "12,345 items", "rendered 26", "pages 3", "end of results", "earlier pages (p)", "expand all", "back 2"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in footer, got %q", want, got)
		}
	}
}

func TestFooter_OmitsInactiveParts(t *testing.T) {
	th := tuitheme.Default()
	got := stripANSI(Footer(FooterInput{Label: "bookmarks: 7", Items: 5, Rendered: 5, Pages: 1}, th))
	for _, unwanted := range []string{"end of results", "earlier pages", "expand", "back"} {
		if strings.Contains(got, unwanted) {
			t.Fatalf("did not expect %q in footer, got %q", unwanted, got)
		}
	}
}

func TestMessage(t *testing.T) {
	th := tuitheme.Default()
	if got := stripANSI(Message(false, false, "", "", th)); got != "state: idle | Ready" {
		t.Fatalf("unexpected idle message: %q", got)
	}
	if got := stripANSI(Message(true, false, "Loading page 2...", "", th)); got != "state: loading | Loading page 2..." {
		t.Fatalf("unexpected loading message: %q", got)
	}
	if got := stripANSI(Message(true, true, "", "page 3: timeout", th)); got != "state: warning | page 3: timeout" {
		t.Fatalf("unexpected warning message: %q", got)
	}
}

func TestHelp(t *testing.T) {
	got := Help()
	for _, want := range []string{"Navigation:", "Expansion:", "Results:", "Actions:"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in help, got %q", want, got)
		}
	}
}
