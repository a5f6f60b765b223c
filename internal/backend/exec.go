package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"
)

// runTool executes an external search tool to completion and returns
// its stdout. Cancellation is checked before the spawn and again
// after the run so a killed tool surfaces as the context's error, not
// as a tool failure.
//
// A nonzero exit that produced no output at all is an execution
// failure. A nonzero exit alongside output means the tool hit
// per-entry errors (unreadable subtrees) and the partial listing is
// still usable.
func runTool(ctx context.Context, name string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil && stdout.Len() == 0 {
		// Exit 1 with a silent stderr is the conventional "no
		// matches" signal (locate behaves this way).
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && stderr.Len() == 0 {
			return nil, nil
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrExecutionFailed, name, msg)
	}

	return stdout.Bytes(), nil
}

// splitNull parses NUL-delimited tool output into clean UTF-8 paths.
func splitNull(out []byte) []string {
	return splitOn(out, 0)
}

// splitLines parses newline-delimited tool output into clean UTF-8
// paths, tolerating CRLF endings.
func splitLines(out []byte) []string {
	return splitOn(out, '\n')
}

func splitOn(out []byte, sep byte) []string {
	if len(out) == 0 {
		return nil
	}
	parts := bytes.Split(out, []byte{sep})
	paths := make([]string, 0, len(parts))
	for _, p := range parts {
		p = bytes.TrimRight(p, "\r")
		if len(p) == 0 {
			continue
		}
		paths = append(paths, sanitizePath(string(p)))
	}
	return paths
}

// sanitizePath replaces invalid UTF-8 byte sequences with the Unicode
// replacement character so downstream consumers always see valid
// strings, whatever the host's path encoding produced.
func sanitizePath(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			b.WriteRune(utf8.RuneError)
			i++
		} else {
			b.WriteRune(r)
			i += size
		}
	}
	return b.String()
}
