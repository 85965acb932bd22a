// Package ingest decodes season-record files in JSON, YAML or CSV.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/battrend/internal/domain/model"
)

// Format is an input encoding.
type Format string

// Input formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// Sentinel kinds for ingest errors.
var (
	ErrUnknownFormat = errors.New("unknown input format")
	ErrMalformed     = errors.New("malformed input")
)

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// ReadFile decodes the records in path. Records are not validated here; the
// store validates on write.
func ReadFile(path string) ([]model.SeasonRecord, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	records, err := Read(file, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Read decodes records from r. JSON and YAML inputs are either a list of
// records or an object with a "records" list.
func Read(r io.Reader, f Format) ([]model.SeasonRecord, error) {
	switch f {
	case FormatJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return decodeJSON(data)
	case FormatYAML:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return decodeYAML(data)
	case FormatCSV:
		return readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

type envelope struct {
	Records []model.SeasonRecord `json:"records" yaml:"records"`
}

func decodeJSON(data []byte) ([]model.SeasonRecord, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var out []model.SeasonRecord
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return out, nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return env.Records, nil
}

func decodeYAML(data []byte) ([]model.SeasonRecord, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	if node.Content[0].Kind == yaml.SequenceNode {
		var out []model.SeasonRecord
		if err := node.Decode(&out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return out, nil
	}
	var env envelope
	if err := node.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return env.Records, nil
}
