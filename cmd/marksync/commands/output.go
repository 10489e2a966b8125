package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/teranos/marksync/errors"
)

// Output formats shared by commands with a --format flag.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// writeStructured prints v as JSON or YAML. It returns false for
// FormatTable so the caller renders its own table.
func writeStructured(w io.Writer, format string, v interface{}) (bool, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, errors.Wrap(err, "failed to marshal JSON")
		}
		fmt.Fprintln(w, string(data))
		return true, nil
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return true, errors.Wrap(err, "failed to marshal YAML")
		}
		fmt.Fprint(w, string(data))
		return true, nil
	case FormatTable, "":
		return false, nil
	}
	return true, errors.NewInvalidRequestError("unsupported format: %s (supported: table, json, yaml)", format)
}
