package lang

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// Format writes the file in native tryouts syntax to the writer.
// The output parses back into a structurally identical tree.
func (f *SourceFile) Format(_ context.Context, w io.Writer) error {
	_, err := io.WriteString(w, f.String())

	return err
}

// FormatJSON writes the tree as JSON to the writer.
func (f *SourceFile) FormatJSON(ctx context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(f.ToMap(), "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.MarshalContext(ctx, f.ToMap())
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the tree as YAML to the writer.
func (f *SourceFile) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, f.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// MarshalJSON implements json.Marshaler for SourceFile.
func (f *SourceFile) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.ToMap())
}

// MarshalYAML implements yaml.BytesMarshaler for SourceFile.
func (f *SourceFile) MarshalYAML() ([]byte, error) {
	return yaml.Marshal(f.ToMap())
}
