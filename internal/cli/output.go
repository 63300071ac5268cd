package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/fatih/color"
)

var (
	okColor      = color.New(color.FgGreen, color.Bold)
	failColor    = color.New(color.FgRed, color.Bold)
	runningColor = color.New(color.FgYellow, color.Bold)
	titleColor   = color.New(color.FgCyan, color.Bold)
	lineColor    = color.New(color.FgBlue)
	keyColor     = color.New(color.FgMagenta)
	dimColor     = color.New(color.Faint)
)

// sanitizeTerm strips control characters so server-provided text cannot
// inject escape sequences into the terminal.
func sanitizeTerm(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(r)
		case r == '\x1b':
			b.WriteString("\\x1b")
		case unicode.IsControl(r) && r < 0x20:
			b.WriteString(fmt.Sprintf("\\x%02x", r))
		case r == 0x7F:
			b.WriteString("\\x7f")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func statusColor(status string) *color.Color {
	switch status {
	case "completed":
		return okColor
	case "failed":
		return failColor
	case "running":
		return runningColor
	default:
		return dimColor
	}
}

func printSuite(s *suiteView, showResults bool) {
	titleColor.Printf("%s", sanitizeTerm(s.Title))
	if s.Archived {
		dimColor.Print(" (archived)")
	}
	fmt.Println()
	dimColor.Printf("  ID: %s\n", s.ID)
	if s.Description != "" {
		fmt.Printf("  %s\n", sanitizeTerm(s.Description))
	}
	if s.BaseOrigin != "" {
		dimColor.Print("  Origin: ")
		lineColor.Println(sanitizeTerm(s.BaseOrigin))
	}
	dimColor.Printf("  Expires: %s\n", s.ExpiresAt.Format("2006-01-02 15:04:05"))

	if len(s.Endpoints) == 0 {
		dimColor.Println("  (no endpoints)")
		return
	}

	fmt.Println()
	for _, ep := range s.Endpoints {
		printEndpoint(&ep, showResults)
	}
}

func printEndpoint(ep *endpointView, showResult bool) {
	dimColor.Printf("  [%d] ", ep.Position)
	statusColor(ep.Status).Printf("%-9s ", ep.Status)

	line := ep.RequestLine
	if len(line) > 70 {
		line = line[:67] + "..."
	}
	lineColor.Println(sanitizeTerm(line))

	if ep.Title != "" {
		dimColor.Printf("      %s\n", sanitizeTerm(ep.Title))
	}
	dimColor.Printf("      id: %s\n", ep.ID)

	if ep.ErrorMessage != nil {
		failColor.Printf("      %s\n", sanitizeTerm(*ep.ErrorMessage))
	}
	if showResult && ep.Result != nil {
		fmt.Println(indent(sanitizeTerm(prettyJSON(*ep.Result)), "      "))
	}
}

func printSuiteList(suites []suiteView) {
	for i, s := range suites {
		dimColor.Printf("[%d] ", i+1)
		titleColor.Printf("%-30s ", sanitizeTerm(s.Title))
		dimColor.Printf("%s ", s.ID)
		dimColor.Printf("(%d endpoints)", len(s.Endpoints))
		fmt.Println()
	}
}

func printVaultItems(items []vaultItemView) {
	if len(items) == 0 {
		dimColor.Println("Vault is empty")
		return
	}
	for _, it := range items {
		keyColor.Printf("  %s ", sanitizeTerm(it.Key))
		dimColor.Print("= ")
		fmt.Println(sanitizeTerm(it.Value))
	}
}

func printRequestHistory(entries []historyEntryView) {
	if len(entries) == 0 {
		dimColor.Println("No requests recorded")
		return
	}
	for i, e := range entries {
		dimColor.Printf("[%d] ", i+1)
		if e.Succeeded {
			okColor.Print("ok   ")
		} else {
			failColor.Print("fail ")
		}
		line := e.RequestLine
		if len(line) > 60 {
			line = line[:57] + "..."
		}
		lineColor.Printf("%-60s ", sanitizeTerm(line))
		dimColor.Printf("(%dms, %s)\n", e.DurationMS, e.CreatedAt.Format("15:04:05"))
	}
}

func printSuccess(msg string) {
	okColor.Printf("✓ %s\n", msg)
}

func printError(msg string) {
	failColor.Printf("✗ %s\n", msg)
}

func prettyJSON(s string) string {
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(s), "", "  "); err != nil {
		return s
	}
	return out.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
