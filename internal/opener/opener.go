// Package opener hands result links to the platform's URL handler.
package opener

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pders01/newsagent/internal/config"
	"github.com/pders01/newsagent/internal/debuglog"
)

// Opener launches an external program for a link.
type Opener struct {
	command string
	start   func(name string, args ...string) error
}

func New(cfg *config.Config) *Opener {
	command := strings.TrimSpace(cfg.UI.Opener)
	if command == "" {
		command = platformOpener()
	}
	return &Opener{command: command, start: startDetached}
}

// Command returns the program used for links.
func (o *Opener) Command() string { return o.command }

// Open launches the configured program for link without waiting for it.
func (o *Opener) Open(link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return fmt.Errorf("item has no link")
	}
	if o.command == "" {
		return fmt.Errorf("no application found to open URL")
	}

	name, args := o.command, []string{link}
	if runtime.GOOS == "windows" && o.command == "start" {
		name, args = "cmd", []string{"/c", "start", "", link}
	}

	debuglog.Debugf("opening %s with %s", link, name)
	if err := o.start(name, args...); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
}

// OpenAll opens every link and joins the failures.
func (o *Opener) OpenAll(links []string) error {
	var errs []error
	for _, l := range links {
		if err := o.Open(l); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", l, err))
		}
	}
	return errors.Join(errs...)
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func platformOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "start"
	default:
		return findCommand("xdg-open", "gio", "sensible-browser")
	}
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
