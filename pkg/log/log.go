// Package log prints colored status lines for the user on stderr, keeping
// stdout free for model output. Provider diagnostics go through the standard
// log package and, like DebugMsg, only show up when verbose is switched on.
package log

import (
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"github.com/afeedhshaji/gemcli/pkg/llm"
)

var (
	errorColor = color.New(color.FgRed, color.Bold)
	infoColor  = color.New(color.FgBlue)
	debugColor = color.New(color.FgHiBlack)

	mu      sync.Mutex
	output  io.Writer = os.Stderr
	verbose bool
)

// SetOutput redirects messages, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetVerbose turns DebugMsg and UsageMsg on or off.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// ErrorMsg prints an error message in red.
func ErrorMsg(format string, a ...interface{}) {
	write(errorColor, "[!] Error: ", format, a)
}

// InfoMsg prints an informational message in blue.
func InfoMsg(format string, a ...interface{}) {
	write(infoColor, "[+] ", format, a)
}

// DebugMsg prints only when verbose.
func DebugMsg(format string, a ...interface{}) {
	mu.Lock()
	on := verbose
	mu.Unlock()
	if on {
		write(debugColor, "[*] ", format, a)
	}
}

// UsageMsg reports which model answered and what it cost in tokens.
func UsageMsg(resp *llm.Response) {
	if resp == nil {
		return
	}
	DebugMsg("model=%s finish=%s tokens prompt=%d output=%d total=%d\n",
		resp.Model, resp.FinishReason, resp.Usage.PromptTokens, resp.Usage.OutputTokens, resp.Usage.TotalTokens)
}

func write(c *color.Color, prefix, format string, a []interface{}) {
	mu.Lock()
	defer mu.Unlock()
	c.Fprintf(output, prefix+format, a...)
}
