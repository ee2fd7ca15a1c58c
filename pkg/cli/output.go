package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func validateOutputFormat(output string) error {
	switch output {
	case "", outputTable, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("unsupported output format %q: use 'table', 'json' or 'yaml'", output)
}

// printStructured writes v as JSON or YAML. It reports false for table output.
func printStructured(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

// printTable renders rows under headers. The last column is truncated to
// the terminal width when w is a terminal.
func printTable(w io.Writer, headers []string, rows [][]string) error {
	width := terminalWidth(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	write := func(cells []string) {
		if width > 0 && len(cells) > 0 {
			used := 0
			for _, c := range cells[:len(cells)-1] {
				used += len(c) + 2
			}
			cells[len(cells)-1] = truncate(cells[len(cells)-1], width-used)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	write(append([]string(nil), headers...))
	for _, r := range rows {
		write(r)
	}
	return tw.Flush()
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd())) //nolint:gosec // fd fits in int
	if err != nil {
		return 0
	}
	return width
}

func truncate(s string, n int) string {
	if n < 4 || len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
