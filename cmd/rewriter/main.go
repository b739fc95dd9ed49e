package main

import (
	"os"
	"strings"

	"rewriter-cli/internal/cli"
)

func isSitemapURL(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// rewriteDirectFetchArgs makes `rewriter <url>` work like `rewriter fetch <url>`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten
// before parsing. Persistent flags may come first, so the first positional
// token is located rather than assuming argv[1].
func rewriteDirectFetchArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	// Flags we don't recognize are skipped without consuming a value, so the
	// URL is never swallowed by accident.
	valueFlags := map[string]bool{
		"--config":    true,
		"--api-url":   true,
		"--api-key":   true,
		"--format":    true,
		"--log-file":  true,
		"--log-level": true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	insertAt := func(i int) []string {
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:i]...)
		out = append(out, "fetch")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isSitemapURL(argv[i+1]) {
				return insertAt(i + 1)
			}
			return argv
		}

		if strings.HasPrefix(a, "-") {
			switch {
			case strings.Contains(a, "="), boolFlags[a]:
			case valueFlags[a]:
				i++
			}
			continue
		}

		// First positional token.
		if isSitemapURL(a) {
			return insertAt(i)
		}
		return argv
	}

	return argv
}

func main() {
	os.Args = rewriteDirectFetchArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
