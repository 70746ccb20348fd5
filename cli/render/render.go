// Package render provides centralized output rendering for the hessian CLI.
//
// Format selection rules:
//   - If output is a TTY, default to table
//   - If output is not a TTY, default to json
//   - --format flag always overrides defaults
//   - Invalid formats are errors
//
// Color handling:
//   - --no-color affects table output only
//   - TUI mode is unaffected by --no-color (uses its own styling)
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/justapithecus/hessian/cli/tui"
	"github.com/justapithecus/hessian/hessian"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string, returning an error for invalid formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil // Let caller decide default
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Renderer handles output formatting.
type Renderer struct {
	format  Format
	noColor bool
	out     io.Writer
}

// NewRenderer creates a renderer from CLI context.
// Applies the TTY-based default when --format is absent.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	formatStr := c.String("format")
	format, err := ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}

	// Apply default format based on TTY detection
	if format == "" {
		if isTTY(os.Stdout) {
			format = FormatTable
		} else {
			format = FormatJSON
		}
	}

	var out io.Writer = os.Stdout
	if c.App != nil && c.App.Writer != nil {
		out = c.App.Writer
	}

	return &Renderer{
		format:  format,
		noColor: c.Bool("no-color"),
		out:     out,
	}, nil
}

// Format returns the selected output format.
func (r *Renderer) Format() Format {
	return r.format
}

// NewRendererWithWriter creates a renderer with a custom writer (for testing).
func NewRendererWithWriter(format Format, noColor bool, out io.Writer) *Renderer {
	return &Renderer{
		format:  format,
		noColor: noColor,
		out:     out,
	}
}

// Render outputs the data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(data)
	case FormatTable:
		return r.renderTable(data)
	case FormatYAML:
		return r.renderYAML(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// RenderTUI initiates TUI mode for the given view type.
func (r *Renderer) RenderTUI(viewType string, data any) error {
	// Validate TUI is supported for this view type
	if !tui.IsTUISupported(viewType) {
		return fmt.Errorf("--tui is not supported for %s", viewType)
	}

	// Run the TUI
	return tui.Run(viewType, data)
}

func (r *Renderer) renderJSON(data any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (r *Renderer) renderYAML(data any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	return enc.Encode(data)
}

func (r *Renderer) renderTable(data any) error {
	v := indirect(reflect.ValueOf(data))
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		return r.renderRows(v)
	}
	return r.renderRecord(v)
}

// column is one table column: a struct field or a map key.
type column struct {
	name      string
	field     int
	omitEmpty bool
}

// renderRows prints one row per element. Columns come from the first
// element; scalar elements print under a single "value" column.
func (r *Renderer) renderRows(v reflect.Value) error {
	if v.Len() == 0 {
		_, err := fmt.Fprintln(r.out, "(no results)")
		return err
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	cols := columnsOf(indirect(v.Index(0)))
	if len(cols) == 0 {
		fmt.Fprintln(w, "value")
		for i := range v.Len() {
			fmt.Fprintln(w, cell(v.Index(i)))
		}
		return w.Flush()
	}

	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.name
	}
	fmt.Fprintln(w, strings.Join(names, "\t"))
	for i := range v.Len() {
		fmt.Fprintln(w, strings.Join(rowCells(v.Index(i), cols), "\t"))
	}
	return w.Flush()
}

// renderRecord prints a single struct or map as "name: value" lines.
// Zero omitempty fields are left out.
func (r *Renderer) renderRecord(v reflect.Value) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	switch v.Kind() {
	case reflect.Struct:
		for _, col := range structColumns(v.Type()) {
			fv := v.Field(col.field)
			if col.omitEmpty && fv.IsZero() {
				continue
			}
			fmt.Fprintf(w, "%s:\t%s\n", col.name, cell(fv))
		}
	case reflect.Map:
		for _, key := range sortedKeys(v) {
			fmt.Fprintf(w, "%v:\t%s\n", key.Interface(), cell(v.MapIndex(key)))
		}
	case reflect.Invalid:
	default:
		fmt.Fprintln(w, cell(v))
	}
	return w.Flush()
}

func columnsOf(v reflect.Value) []column {
	switch v.Kind() {
	case reflect.Struct:
		return structColumns(v.Type())
	case reflect.Map:
		keys := sortedKeys(v)
		cols := make([]column, len(keys))
		for i, key := range keys {
			cols[i] = column{name: fmt.Sprint(key.Interface()), field: -1}
		}
		return cols
	}
	return nil
}

// structColumns lists the exported fields of t, named by their json tag.
// Fields tagged "-" are skipped.
func structColumns(t reflect.Type) []column {
	var cols []column
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" && opts == "" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		cols = append(cols, column{name: name, field: i, omitEmpty: strings.Contains(opts, "omitempty")})
	}
	return cols
}

func rowCells(v reflect.Value, cols []column) []string {
	v = indirect(v)
	out := make([]string, len(cols))
	for i, col := range cols {
		switch v.Kind() {
		case reflect.Struct:
			if col.field >= 0 && col.field < v.NumField() {
				out[i] = cell(v.Field(col.field))
			}
		case reflect.Map:
			if v.Type().Key().Kind() == reflect.String {
				out[i] = cell(v.MapIndex(reflect.ValueOf(col.name).Convert(v.Type().Key())))
			}
		}
	}
	return out
}

// cell formats one table cell. Nested collections collapse to a count;
// decoded hessian composites collapse to their kind, id and size.
func cell(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil() {
		return ""
	}
	v = indirect(v)

	if t, ok := v.Interface().(time.Time); ok {
		return t.Format(time.RFC3339)
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "[]"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if m, ok := v.Interface().(map[string]any); ok {
			if s, ok := composite(m); ok {
				return s
			}
		}
		if v.Len() == 0 {
			return "{}"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	case reflect.Struct:
		return "{...}"
	default:
		return fmt.Sprint(v.Interface())
	}
}

// composite summarizes a value produced by hessian.Plain.
func composite(m map[string]any) (string, bool) {
	if id, ok := m["$ref"]; ok {
		return fmt.Sprintf("ref #%v", id), true
	}
	kind, _ := m["kind"].(string)
	count := func(key string) int {
		items, _ := m[key].([]any)
		return len(items)
	}
	switch hessian.Kind(kind) {
	case hessian.KindMap, hessian.KindFault:
		return fmt.Sprintf("%s #%v (%d entries)", kind, m["id"], count("entries")), true
	case hessian.KindList:
		return fmt.Sprintf("list #%v (%d items)", m["id"], count("items")), true
	case hessian.KindObject:
		return fmt.Sprintf("object #%v %v", m["id"], m["type"]), true
	case hessian.KindRemote:
		return fmt.Sprintf("remote %v", m["type"]), true
	case hessian.KindCall:
		return fmt.Sprintf("call %v (%d args)", m["method"], count("args")), true
	case hessian.KindReply:
		if _, failed := m["fault"]; failed {
			return "reply (fault)", true
		}
		return "reply", true
	}
	return "", false
}

// indirect unwraps interfaces and non-nil pointers.
func indirect(v reflect.Value) reflect.Value {
	for (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

// sortedKeys returns the map's keys ordered by their printed form.
func sortedKeys(v reflect.Value) []reflect.Value {
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
	return keys
}

// isTTY returns true if the writer is a TTY.
func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
