// Package render turns reports and digests into terminal text, JSON or YAML.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/okian/battrend/internal/domain/model"
)

// Format selects an output encoding.
type Format string

// Output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat accepts text, json, yaml or yml in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType is the HTTP media type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Structured writes v as indented JSON or as YAML.
func Structured(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q is not structured", ErrUnknownFormat, f)
	}
}

func precision(m model.Metric) int32 {
	if info, ok := model.Info(m); ok {
		return info.Precision
	}
	return 3
}

// Value formats v at the display precision of m.
func Value(m model.Metric, v float64) string {
	return decimal.NewFromFloat(v).StringFixed(precision(m))
}

// Delta formats v like Value with an explicit sign.
func Delta(m model.Metric, v float64) string {
	d := decimal.NewFromFloat(v).Round(precision(m))
	s := d.StringFixed(precision(m))
	if d.Sign() >= 0 {
		return "+" + s
	}
	return s
}

// Rank formats a percentile rank.
func Rank(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(0)
}
