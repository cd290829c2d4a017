// Command archcheck fails when a package crosses the module's layering rules.
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"
)

const modulePrefix = "ex-revolt/"

// listFormat prints one tab separated line per package: importer, then imports.
const listFormat = `{{.ImportPath}}{{range .Imports}}{{"\t"}}{{.}}{{end}}` +
	`{{range .TestImports}}{{"\t"}}{{.}}{{end}}{{range .XTestImports}}{{"\t"}}{{.}}{{end}}`

type importEdge struct {
	from string
	to   string
}

type layerRule struct {
	reason string
	from   func(string) bool
	to     func(string) bool
}

var layerRules = []layerRule{
	{
		reason: "pkg/revolt must not import internal/*",
		from:   under("pkg/revolt"),
		to:     under("internal/"),
	},
	{
		reason: "pkg/revolt must stay transport and storage agnostic",
		from:   under("pkg/revolt"),
		to:     isTransportLibrary,
	},
	{
		reason: "internal/cache/* must not import transports or the dispatcher",
		from:   under("internal/cache/"),
		to:     anyOf(isTransportPackage, under("internal/dispatch")),
	},
	{
		reason: "transports must reach the cache through pkg/revolt ports",
		from:   isTransportPackage,
		to:     under("internal/cache/"),
	},
	{
		reason: "internal/dispatch must not import transports",
		from:   under("internal/dispatch"),
		to:     isTransportPackage,
	},
}

func main() {
	os.Exit(run(os.Stdout, os.Stderr))
}

func run(stdout, stderr io.Writer) int {
	cmd := exec.Command("go", "list", "-test", "-f", listFormat, "./...")
	cmd.Stderr = stderr
	output, err := cmd.Output()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "arch-check: go list: %v\n", err)
		return 1
	}

	violations := collectViolations(parseEdges(string(output)))
	if len(violations) == 0 {
		_, _ = fmt.Fprintln(stdout, "arch-check: passed")
		return 0
	}

	_, _ = fmt.Fprintln(stdout, "arch-check: architecture violations:")
	for _, violation := range violations {
		_, _ = fmt.Fprintf(stdout, "  - %s\n", violation)
	}
	return 1
}

func parseEdges(output string) []importEdge {
	var edges []importEdge
	for line := range strings.Lines(output) {
		fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
		if fields[0] == "" {
			continue
		}
		for _, imported := range fields[1:] {
			if imported != "" {
				edges = append(edges, importEdge{from: fields[0], to: imported})
			}
		}
	}

	return edges
}

// collectViolations returns one sorted entry per offending edge.
func collectViolations(edges []importEdge) []string {
	var violations []string
	for _, edge := range edges {
		if reason := violationReason(edge.from, edge.to); reason != "" {
			violations = append(violations, fmt.Sprintf("%s -> %s (%s)", edge.from, edge.to, reason))
		}
	}
	slices.Sort(violations)

	return slices.Compact(violations)
}

func violationReason(importer, imported string) string {
	for _, rule := range layerRules {
		if rule.from(importer) && rule.to(imported) {
			return rule.reason
		}
	}

	return ""
}

func under(prefix string) func(string) bool {
	return func(importPath string) bool {
		return strings.HasPrefix(importPath, modulePrefix+prefix)
	}
}

func anyOf(matchers ...func(string) bool) func(string) bool {
	return func(importPath string) bool {
		return slices.ContainsFunc(matchers, func(match func(string) bool) bool {
			return match(importPath)
		})
	}
}

func isTransportPackage(importPath string) bool {
	return under("internal/gateway")(importPath) || under("internal/rest")(importPath)
}

func isTransportLibrary(importPath string) bool {
	for _, library := range []string{"github.com/gorilla/websocket", "modernc.org/sqlite", "database/sql", "net/http"} {
		if importPath == library || strings.HasPrefix(importPath, library+"/") {
			return true
		}
	}

	return false
}
