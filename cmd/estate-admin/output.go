package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	outputYAML = "yaml"
	outputJSON = "json"
)

func (c *cli) print(out io.Writer, value any) error {
	switch c.output {
	case outputJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	case outputYAML:
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(value)
	default:
		return fmt.Errorf("unknown output format %q (must be one of %s or %s)", c.output, outputYAML, outputJSON)
	}
}
