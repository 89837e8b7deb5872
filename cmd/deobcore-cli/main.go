// SPDX-License-Identifier: Apache-2.0
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"

	"deobcore/internal/analysis"
	"deobcore/internal/irtext"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: deobcore-cli <file.irtext>")
		os.Exit(1)
	}

	path := os.Args[1]

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read file: %s", err)
		os.Exit(1)
	}

	format := irtext.Format{Name: path}
	program, err := format.Parse(string(source))
	if err != nil {
		reportParseError(string(source), err)
		os.Exit(1)
	}

	data := analysis.Analyze(program, analysis.Options{Printer: format}, nil)

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		color.Red("failed to encode analysis result: %s", err)
		os.Exit(1)
	}
	fmt.Println(string(encoded))

	if data.Metadata.Success {
		color.Green("✅ analyzed %s (%d passes)", path, data.Metadata.TotalPasses)
	} else {
		color.Red("❌ analysis failed for %s", path)
		os.Exit(1)
	}
}

// reportParseError prints a friendly caret-style parse error message.
func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("Unexpected error: %s", err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("Syntax error at unknown location: %s", err)
		return
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", pos.Column-1) + "^"

	color.Red("❌ Syntax error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("→ %s\n", pe.Message())
}
