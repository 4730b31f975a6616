// Package render writes the payloads of read-only utf8conv commands.
//
// Without --format, a TTY on stdout gets a table and anything else gets
// json. --no-color only concerns table output; the TUI has its own styling.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/utf8conv/cli/tui"
)

// Format is an output format.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a --format value. The empty string is returned as is
// so the caller can pick the default.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	switch f {
	case "", FormatJSON, FormatTable, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
}

// Renderer writes payloads in one format.
type Renderer struct {
	format  Format
	noColor bool
	out     io.Writer
}

// NewRenderer builds a renderer from the --format and --no-color flags,
// writing to stdout.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = FormatJSON
		if isTTY(os.Stdout) {
			format = FormatTable
		}
	}
	return NewRendererWithWriter(format, c.Bool("no-color") || os.Getenv("NO_COLOR") != "", os.Stdout), nil
}

// NewRendererWithWriter creates a renderer over out.
func NewRendererWithWriter(format Format, noColor bool, out io.Writer) *Renderer {
	return &Renderer{format: format, noColor: noColor, out: out}
}

// Format returns the selected output format.
func (r *Renderer) Format() Format { return r.format }

// Render writes data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable:
		return r.renderTable(data)
	}
	return fmt.Errorf("unknown format: %s", r.format)
}

// RenderTUI runs the interactive view for viewType.
func (r *Renderer) RenderTUI(viewType string, data any) error {
	if !tui.IsTUISupported(viewType) {
		return fmt.Errorf("--tui is not supported for %s", viewType)
	}
	return tui.Run(viewType, data)
}

func (r *Renderer) renderTable(data any) error {
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	v := indirect(reflect.ValueOf(data))

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		writeRows(tw, v)
	case reflect.Struct, reflect.Map:
		for _, kv := range flatten("", v) {
			fmt.Fprintf(tw, "%s:\t%s\n", kv[0], kv[1])
		}
	default:
		fmt.Fprintf(tw, "%v\n", data)
	}
	return tw.Flush()
}

// writeRows writes one header line and one line per element. Columns come
// from the first element.
func writeRows(w io.Writer, v reflect.Value) {
	if v.Len() == 0 {
		fmt.Fprintln(w, "(no results)")
		return
	}
	cols := columns(indirect(v.Index(0)))
	fmt.Fprintln(w, strings.Join(cols, "\t"))
	for i := range v.Len() {
		e := indirect(v.Index(i))
		cells := make([]string, len(cols))
		for j, col := range cols {
			cells[j] = cellText(lookup(e, col))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
}

// flatten turns a struct or map into key/value pairs. Nested structs use
// dotted keys, map keys are sorted and a nil nested pointer yields an empty
// value.
func flatten(prefix string, v reflect.Value) [][2]string {
	var out [][2]string
	emit := func(name string, fv reflect.Value) {
		if fv.Kind() == reflect.Pointer && fv.IsNil() {
			out = append(out, [2]string{name, ""})
			return
		}
		if inner := indirect(fv); inner.Kind() == reflect.Struct && !isTime(inner) {
			out = append(out, flatten(name+".", inner)...)
			return
		}
		out = append(out, [2]string{name, cellText(fv)})
	}

	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := range t.NumField() {
			if f := t.Field(i); f.IsExported() {
				emit(prefix+fieldName(f), v.Field(i))
			}
		}
	case reflect.Map:
		for _, k := range sortedKeys(v) {
			emit(prefix+fmt.Sprint(k.Interface()), v.MapIndex(k))
		}
	}
	return out
}

func columns(v reflect.Value) []string {
	var cols []string
	switch v.Kind() {
	case reflect.Struct:
		for i := range v.NumField() {
			cols = append(cols, fieldName(v.Type().Field(i)))
		}
	case reflect.Map:
		for _, k := range sortedKeys(v) {
			cols = append(cols, fmt.Sprint(k.Interface()))
		}
	}
	return cols
}

// lookup finds a column value in a struct (by field name) or a map.
func lookup(v reflect.Value, col string) reflect.Value {
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := range t.NumField() {
			if fieldName(t.Field(i)) == col {
				return v.Field(i)
			}
		}
	case reflect.Map:
		return v.MapIndex(reflect.ValueOf(col))
	}
	return reflect.Value{}
}

func sortedKeys(v reflect.Value) []reflect.Value {
	keys := v.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		return strings.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
	})
	return keys
}

// fieldName is the json tag name, or the lowercased Go name.
func fieldName(f reflect.StructField) string {
	if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
		return name
	}
	return strings.ToLower(f.Name)
}

func cellText(v reflect.Value) string {
	if !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return ""
	}
	v = indirect(v)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "[]"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "{}"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	case reflect.Struct:
		if isTime(v) {
			return fmt.Sprint(v.Interface())
		}
		return "{...}"
	}
	return fmt.Sprint(v.Interface())
}

func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

func isTime(v reflect.Value) bool { return v.Type() == reflect.TypeFor[time.Time]() }

func isTTY(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
