// Package cli holds cobra command constructors for the operator CLI
// (cmd/scenario-cli). Unlike the teacher's cli package — an HTTP client
// talking to a REST API — these commands call the in-process Engine Façade
// directly, since this spec places the Façade itself (not an HTTP layer)
// at the system boundary. Output keeps the teacher's table/JSON split
// (data on stdout, status lines on stderr) trimmed to what scenario.go
// actually renders: execution/scenario rows and success confirmations.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Output formats CLI results as either a table or JSON.
type Output struct {
	jsonMode bool
	w        io.Writer
	errW     io.Writer
}

// NewOutput builds an Output. When jsonMode is true, Print emits JSON.
func NewOutput(jsonMode bool) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        os.Stdout,
		errW:     os.Stderr,
	}
}

// Print renders rows as a table, or jsonData as JSON, depending on mode.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table writes headers and rows via tabwriter.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON writes v as indented JSON.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Success writes msg to stderr. Command errors are left to cobra's own
// RunE-returned-error handling in cmd/scenario-cli, so there is no
// parallel Error method here.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}
