package version

import (
	"bytes"
	"context"
	"testing"

	"github.com/urfave/cli/v3"
)

func TestGetCommand(t *testing.T) {
	cmd := GetCommand()

	if cmd == nil {
		t.Fatal("GetCommand() returned nil")
	}
	if cmd.Name != "version" {
		t.Errorf("command name = %q; want %q", cmd.Name, "version")
	}
	if cmd.Action == nil {
		t.Fatal("command action should not be nil")
	}
}

func TestVersionCommand_Output(t *testing.T) {
	origVersion := Version
	defer func() { Version = origVersion }()
	Version = "v1.2.3"

	var out bytes.Buffer
	root := &cli.Command{
		Name:     "gemcli",
		Writer:   &out,
		Commands: []*cli.Command{GetCommand()},
	}
	if err := root.Run(context.Background(), []string{"gemcli", "version"}); err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}
	if got := out.String(); got != "v1.2.3\n" {
		t.Errorf("output = %q; want %q", got, "v1.2.3\n")
	}
}
