// Package loader reads a document in JSON, NDJSON, YAML or TOML and returns
// it as an ordered JSON value.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/oakwood-commons/jlens/internal/jsonvalue"
)

// ErrEmptyInput is returned for blank input.
var ErrEmptyInput = errors.New("empty input")

// Format is a detected input format.
type Format string

const (
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
)

// Formats lists the accepted --format values.
var Formats = []Format{FormatJSON, FormatNDJSON, FormatYAML, FormatTOML}

// ParseFormat validates a user supplied format name. An empty name means
// auto-detect.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return "", nil
	}
	for _, f := range Formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of json, ndjson, yaml, toml)", s)
}

// Detect guesses the format of input. Input that opens with { or [ and
// parses as a single JSON value is always JSON; the NDJSON, TOML and YAML
// heuristics only run when that parse fails, since a JSON line such as
// ["a"] also looks like a TOML table header.
func Detect(input []byte) Format {
	trimmed := bytes.TrimSpace(input)
	text := string(trimmed)
	if looksLikeJSON(text) {
		if _, err := jsonvalue.Parse(trimmed); err == nil {
			return FormatJSON
		}
	}
	switch {
	case strings.HasPrefix(text, "---") || strings.Contains(text, "\n---"):
		return FormatYAML
	case isLikelyNDJSON(strings.Split(text, "\n")):
		return FormatNDJSON
	case isLikelyTOML(text):
		return FormatTOML
	case looksLikeJSON(text):
		return FormatJSON
	default:
		return FormatYAML
	}
}

func looksLikeJSON(text string) bool {
	return strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[")
}

// Load parses input in the given format, auto-detecting when format is empty.
// Inputs with several documents become a top-level array.
func Load(input []byte, format Format) (jsonvalue.Value, Format, error) {
	if len(bytes.TrimSpace(input)) == 0 {
		return jsonvalue.Value{}, "", ErrEmptyInput
	}
	if format == "" {
		format = Detect(input)
	}
	var (
		v   jsonvalue.Value
		err error
	)
	switch format {
	case FormatJSON:
		v, err = jsonvalue.Parse(input)
	case FormatNDJSON:
		v, err = loadNDJSON(input)
	case FormatYAML:
		v, err = loadYAML(input)
	case FormatTOML:
		v, err = loadTOML(input)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return jsonvalue.Value{}, format, fmt.Errorf("invalid %s: %w", strings.ToUpper(string(format)), err)
	}
	return v, format, nil
}

// LoadReader reads all of r and parses it.
func LoadReader(r io.Reader, format Format) (jsonvalue.Value, Format, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return jsonvalue.Value{}, "", err
	}
	return Load(data, format)
}

// LoadFile reads and parses the file at path.
func LoadFile(path string, format Format) (jsonvalue.Value, Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return jsonvalue.Value{}, "", err
	}
	return Load(data, format)
}

func loadNDJSON(input []byte) (jsonvalue.Value, error) {
	docs, err := jsonvalue.ParseStream(bytes.NewReader(input))
	if err != nil {
		return jsonvalue.Value{}, err
	}
	if len(docs) == 1 {
		return docs[0], nil
	}
	return jsonvalue.NewArray(docs...), nil
}

func loadTOML(input []byte) (jsonvalue.Value, error) {
	var data map[string]any
	if err := toml.Unmarshal(input, &data); err != nil {
		return jsonvalue.Value{}, err
	}
	return jsonvalue.FromInterface(data)
}

// isLikelyNDJSON reports whether most non-empty lines start a JSON object or
// array. Requiring a majority keeps YAML lists out.
func isLikelyNDJSON(lines []string) bool {
	jsonLines, nonEmpty := 0, 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonLines++
		}
	}
	if nonEmpty < 2 || jsonLines <= nonEmpty/2 {
		return false
	}
	// Pretty-printed JSON also starts lines with braces; NDJSON needs a
	// complete value on every line.
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if _, err := jsonvalue.Parse([]byte(trimmed)); err != nil {
			return false
		}
	}
	return true
}

var (
	tomlSection  = regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	tomlKeyValue = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// isLikelyTOML looks for [table] headers or a majority of key = value lines.
func isLikelyTOML(input string) bool {
	sections, pairs, nonEmpty := 0, 0, 0
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmpty++
		if tomlSection.MatchString(line) {
			sections++
		}
		if tomlKeyValue.MatchString(line) {
			pairs++
		}
	}
	return sections > 0 || (nonEmpty > 0 && pairs > nonEmpty/2)
}
