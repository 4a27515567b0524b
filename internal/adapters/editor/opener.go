// Package editor launches the user's text editor on a file.
package editor

import (
	"errors"
	"os"
	"os/exec"
	"strings"
)

// ErrNoEditor is returned when neither the environment nor PATH names an editor
var ErrNoEditor = errors.New("no editor found: set $VISUAL or $EDITOR")

// fallbacks are tried in order when no editor variable is set
var fallbacks = []string{"nvim", "vim", "vi", "nano"}

// Opener resolves and runs an editor
type Opener struct {
	getenv   func(string) string
	lookPath func(string) (string, error)
}

// NewOpener creates an opener reading the process environment
func NewOpener() *Opener {
	return &Opener{getenv: os.Getenv, lookPath: exec.LookPath}
}

// Edit opens path and waits for the editor to exit
func (o *Opener) Edit(path string) error {
	cmd, err := o.Command(path)
	if err != nil {
		return err
	}
	return cmd.Run()
}

// Command returns the editor invocation for path attached to the terminal.
// Editor variables may carry arguments, such as "code --wait".
func (o *Opener) Command(path string) (*exec.Cmd, error) {
	argv := o.resolve()
	if len(argv) == 0 {
		return nil, ErrNoEditor
	}

	cmd := exec.Command(argv[0], append(argv[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd, nil
}

// resolve prefers $VISUAL over $EDITOR, then the first fallback on PATH
func (o *Opener) resolve() []string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if fields := strings.Fields(o.getenv(env)); len(fields) > 0 {
			return fields
		}
	}
	for _, name := range fallbacks {
		if path, err := o.lookPath(name); err == nil {
			return []string{path}
		}
	}
	return nil
}
