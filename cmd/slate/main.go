package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"slate-cli/internal/cli"
)

func isDocumentFile(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasSuffix(strings.ToLower(s), ".json") && len(s) > len(".json")
}

// rewriteImportArgs makes `slate <file.json>` work like `slate import <file.json>`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten
// before parsing. Persistent flags may come first, so the first positional
// token is searched for, skipping the values of known value flags.
func rewriteImportArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}
	valueFlags := map[string]bool{
		"--config-dir": true,
		"--doc":        true,
		"--format":     true,
	}
	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if isDocumentFile(a) {
			out := make([]string, 0, len(argv)+1)
			out = append(out, argv[:i]...)
			out = append(out, "import")
			out = append(out, argv[i:]...)
			return out
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteImportArgs(os.Args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
