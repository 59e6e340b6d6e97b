package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatHTML = "html"
)

// ErrUnsupportedFormat indicates the requested output format is not supported.
var ErrUnsupportedFormat = errors.New("unsupported format")

// NormalizeFormat canonicalizes a user-provided output format string.
func NormalizeFormat(format string) string {
	normalized := strings.ToLower(strings.TrimSpace(format))

	switch normalized {
	case "", "table":
		return FormatText
	case "yml":
		return FormatYAML
	default:
		return normalized
	}
}

// ValidateFormat checks whether format is one of supported.
func ValidateFormat(format string, supported ...string) (string, error) {
	normalized := NormalizeFormat(format)
	for _, candidate := range supported {
		if normalized == candidate {
			return normalized, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// Encode writes v as JSON or YAML.
func Encode(w io.Writer, format string, v any) error {
	switch NormalizeFormat(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("json encode: %w", err)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("yaml encode: %w", err)
		}

		if err := enc.Close(); err != nil {
			return fmt.Errorf("yaml encode: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// WriteBuckets writes b in any supported format.
func WriteBuckets(w io.Writer, format string, b *Buckets) error {
	switch NormalizeFormat(format) {
	case FormatText:
		return writeText(w, BucketTable(b))
	case FormatHTML:
		return RenderBuckets(w, b)
	default:
		return Encode(w, format, b)
	}
}

// WriteTimeline writes t in any supported format.
func WriteTimeline(w io.Writer, format string, t *Timeline) error {
	switch NormalizeFormat(format) {
	case FormatText:
		return writeText(w, TimelineTable(t))
	case FormatHTML:
		return RenderTimeline(w, t)
	default:
		return Encode(w, format, t)
	}
}

func writeText(w io.Writer, text string) error {
	_, err := io.WriteString(w, text+"\n")
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	return nil
}
