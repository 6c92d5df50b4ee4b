package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/term"
)

// Default is sent when neither arguments nor stdin provide a prompt.
const Default = "Hello"

const labelLen = 40

var spaceRun = regexp.MustCompile(`[ \t]+`)

// Compose joins args and, when stdin is piped, appends its contents.
func Compose(args []string, stdin io.Reader, stdinIsTTY bool) (string, error) {
	p := strings.TrimSpace(strings.Join(args, " "))
	if stdin != nil && !stdinIsTTY {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		if piped := strings.TrimSpace(string(b)); piped != "" {
			if p == "" {
				p = piped
			} else {
				p = p + "\n\n" + piped
			}
		}
	}
	if p == "" {
		return Default, nil
	}
	return p, nil
}

// Clean trims s and collapses runs of blanks, keeping line breaks.
func Clean(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(spaceRun.ReplaceAllString(l, " "))
	}
	return strings.Join(lines, "\n")
}

// ReadBatch returns one prompt per non-blank line, skipping '#' comments.
func ReadBatch(r io.Reader) ([]string, error) {
	var prompts []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prompts = append(prompts, Clean(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	return prompts, nil
}

// Label returns a one-line preview of p for logs.
func Label(p string) string {
	p = strings.Join(strings.Fields(p), " ")
	runes := []rune(p)
	if len(runes) <= labelLen {
		return p
	}
	return string(runes[:labelLen-1]) + "…"
}

// StdinIsTerminal reports whether os.Stdin is attached to a terminal.
func StdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
