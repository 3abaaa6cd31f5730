package opener

import (
	"errors"
	"runtime"
	"testing"

	"github.com/pders01/newsagent/internal/config"
)

type recorder struct {
	calls [][]string
	err   error
}

func (r *recorder) start(name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.err
}

func TestOpen(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("opener command is rewritten on windows")
	}

	cfg := config.TestConfig()
	cfg.UI.Opener = "my-browser"

	o := New(cfg)
	rec := &recorder{}
	o.start = rec.start

	if o.Command() != "my-browser" {
		t.Errorf("Command() = %s, want my-browser", o.Command())
	}

	if err := o.Open(" https://electrek.co/a "); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(rec.calls) != 1 || rec.calls[0][0] != "my-browser" || rec.calls[0][1] != "https://electrek.co/a" {
		t.Errorf("unexpected calls %v", rec.calls)
	}

	if err := o.Open(""); err == nil {
		t.Error("expected error for empty link")
	}
}

func TestOpenAll(t *testing.T) {
	cfg := config.TestConfig()
	cfg.UI.Opener = "my-browser"

	o := New(cfg)
	rec := &recorder{err: errors.New("exec: not found")}
	o.start = rec.start

	err := o.OpenAll([]string{"https://a.example.org", "https://b.example.org"})
	if err == nil {
		t.Fatal("expected joined error")
	}
	if len(rec.calls) != 2 {
		t.Errorf("expected both links attempted, got %d", len(rec.calls))
	}
}

func TestFindCommand(t *testing.T) {
	if got := findCommand("definitely-not-a-real-command-xyz"); got != "" {
		t.Errorf("findCommand() = %q, want empty", got)
	}
}
