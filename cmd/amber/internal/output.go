// Package internal carries plumbing shared by the amber subcommands: result
// formatting and exit-code-aware error handling.
package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// OutputFormat selects how command results are rendered.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Formatter renders command results. Text output is for terminals, JSON for
// scripts and pipelines; every command supports both.
type Formatter interface {
	PrintSuccess(message string) error
	PrintTable(headers []string, rows [][]string) error
	PrintJSON(data any) error
}

// NewFormatter returns the Formatter for format, falling back to text for
// anything unrecognized. A nil writer means stdout.
func NewFormatter(format OutputFormat, w io.Writer) Formatter {
	if format == FormatJSON {
		return NewJSONFormatter(w)
	}
	return NewTextFormatter(w)
}

// TextFormatter writes terminal-friendly output with aligned columns.
type TextFormatter struct {
	writer io.Writer
}

func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: orStdout(w)}
}

func (f *TextFormatter) PrintSuccess(message string) error {
	_, err := fmt.Fprintf(f.writer, "✓ %s\n", message)
	return err
}

// PrintTable renders rows under uppercased headers. The tabwriter buffers
// everything, so write errors surface on Flush.
func (f *TextFormatter) PrintTable(headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = strings.ToUpper(h)
	}
	fmt.Fprintln(tw, strings.Join(cells, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func (f *TextFormatter) PrintJSON(data any) error {
	return encodeJSON(f.writer, data)
}

// JSONFormatter writes every result as indented JSON.
type JSONFormatter struct {
	writer io.Writer
}

func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: orStdout(w)}
}

func (f *JSONFormatter) PrintSuccess(message string) error {
	return encodeJSON(f.writer, map[string]any{
		"status":  "success",
		"message": message,
	})
}

// PrintTable renders rows as an array of header-keyed objects. Short rows are
// padded with empty strings so every object carries the full key set.
func (f *JSONFormatter) PrintTable(headers []string, rows [][]string) error {
	objects := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]string, len(headers))
		for i, header := range headers {
			var value string
			if i < len(row) {
				value = row[i]
			}
			obj[header] = value
		}
		objects = append(objects, obj)
	}
	return encodeJSON(f.writer, objects)
}

func (f *JSONFormatter) PrintJSON(data any) error {
	return encodeJSON(f.writer, data)
}

func encodeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func orStdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
