package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ironsheep/texture-tools-mcp/internal/server"
)

func TestPrintHelp_ListsEveryTool(t *testing.T) {
	var buf bytes.Buffer
	printHelp(&buf)
	help := buf.String()

	for _, tool := range server.GetToolDefinitions() {
		if !strings.Contains(help, "  "+tool.Name+" ") {
			t.Errorf("help text does not list %s", tool.Name)
		}
	}
}
