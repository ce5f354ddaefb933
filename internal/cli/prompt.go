package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// promptLine prints prompt to stderr and reads one line from the command's
// input. A final line without newline is accepted.
func promptLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := input.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo when the input is a
// terminal, or as a plain line otherwise.
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok || !isTerminal(int(f.Fd())) {
		return promptLine(cmd, prompt)
	}

	w := cmd.ErrOrStderr()
	fmt.Fprint(w, prompt)
	pw, err := readPassword(int(f.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// valueOrPrompt returns v if set, otherwise asks for it.
func valueOrPrompt(cmd *cobra.Command, v, prompt string) (string, error) {
	if v != "" {
		return v, nil
	}
	v, err := promptLine(cmd, prompt)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%s cannot be empty", strings.TrimSuffix(strings.ToLower(prompt), ": "))
	}
	return v, nil
}
