package roi

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a ROI set from path. The format is chosen by extension:
//
//	.json        [{"name":"roi_1","x":10,"y":20,"w":50,"h":40}, ...]
//	.yaml, .yml  the same list, or {rois: [...]}
//	.txt         one "x,y,w,h" per line (comma, space or tab separated)
//
// Text files carry no names; regions are named roi_1, roi_2, ... in line order.
func Load(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, &ConfigError{Source: path, Reason: "read failed", Err: err}
	}

	var defs []Definition
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		defs, err = decodeJSON(data)
	case ".yaml", ".yml":
		defs, err = decodeYAML(data)
	case ".txt", "":
		defs, err = decodeText(data)
	default:
		return Set{}, &ConfigError{Source: path, Reason: fmt.Sprintf("unsupported format %q", filepath.Ext(path))}
	}
	if err != nil {
		return Set{}, &ConfigError{Source: path, Reason: "malformed", Err: err}
	}

	return newSet(defs, path)
}

func decodeJSON(data []byte) ([]Definition, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var defs []Definition
	if err := dec.Decode(&defs); err != nil {
		return nil, err
	}
	return defs, nil
}

func decodeYAML(data []byte) ([]Definition, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	doc := root.Content[0]

	var defs []Definition
	switch doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&defs); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var wrapped struct {
			ROIs []Definition `yaml:"rois"`
		}
		if err := doc.Decode(&wrapped); err != nil {
			return nil, err
		}
		defs = wrapped.ROIs
	default:
		return nil, fmt.Errorf("expected a list of regions")
	}
	return defs, nil
}

func decodeText(data []byte) ([]Definition, error) {
	var defs []Definition
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		vals, err := parseInts(line, 4)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		defs = append(defs, Definition{
			Name: fmt.Sprintf("roi_%d", len(defs)+1),
			X:    vals[0], Y: vals[1], W: vals[2], H: vals[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return defs, nil
}

// splitFields splits on commas, spaces and tabs, dropping empty fields.
func splitFields(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

func parseInts(line string, n int) ([]int, error) {
	fields := splitFields(line)
	if len(fields) < n {
		return nil, fmt.Errorf("want %d values, got %d", n, len(fields))
	}
	vals := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return vals, nil
}
