package output

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Encode writes r to w in format: text, json, ndjson, yaml or toml.
func Encode(w io.Writer, format string, r *Report) error {
	if r == nil {
		return fmt.Errorf("report is nil")
	}
	switch format {
	case "text":
		return writeText(w, r)
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(r)
	case "ndjson":
		encoder := json.NewEncoder(w)
		for _, e := range r.events() {
			if err := encoder.Encode(e); err != nil {
				return err
			}
		}
		return nil
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(r); err != nil {
			return err
		}
		return encoder.Close()
	case "toml":
		return toml.NewEncoder(w).Encode(r)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeText(w io.Writer, r *Report) error {
	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s) %s", bold("Batch"), r.BatchID, r.Mode, r.Correlation)
	if r.Stream != "" {
		fmt.Fprintf(&b, " on %s", r.Stream)
	}
	b.WriteByte('\n')

	for _, rec := range r.Records {
		url, _ := rec["url"].(string)
		if url == "" {
			url = "-"
		}
		fmt.Fprintf(&b, "  %s", url)
		keys := make([]string, 0, len(rec))
		for k := range rec {
			if k != "url" {
				keys = append(keys, k)
			}
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%s", faint(k), formatValue(rec[k]))
		}
		b.WriteByte('\n')
	}

	summary := fmt.Sprintf("%d/%d dependencies evaluated", r.Evaluated, r.Requested)
	if r.Partial() {
		summary = color.YellowString(summary)
	} else {
		summary = color.GreenString(summary)
	}
	b.WriteString(summary)
	b.WriteByte('\n')

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	// Buffered console writers (bufio.Writer) get the whole block at once.
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case []string:
		if len(t) == 0 {
			return "[]"
		}
		return strings.Join(t, ",")
	case string:
		if t == "" || strings.ContainsAny(t, " \t") {
			return fmt.Sprintf("%q", t)
		}
		return t
	default:
		return fmt.Sprint(t)
	}
}
