package roi

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// minBackground replaces a zero reference so normalization never divides by zero.
const minBackground = 1e-6

// Background is the reference region used to normalize ROI means.
// Value is the calibrated gray level of that region.
type Background struct {
	Region Definition
	Value  float64
}

// LoadBackground reads a single "x,y,w,h,value" line.
func LoadBackground(path string) (Background, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Background{}, &ConfigError{Source: path, Reason: "read failed", Err: err}
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		bg, err := parseBackground(line)
		if err != nil {
			return Background{}, &ConfigError{Source: path, ROI: "background", Reason: "malformed", Err: err}
		}
		return bg, nil
	}
	return Background{}, &ConfigError{Source: path, ROI: "background", Reason: "no background line"}
}

func parseBackground(line string) (Background, error) {
	fields := splitFields(line)
	if len(fields) < 5 {
		return Background{}, fmt.Errorf("want x,y,w,h,value, got %d values", len(fields))
	}
	vals, err := parseInts(strings.Join(fields[:4], ","), 4)
	if err != nil {
		return Background{}, err
	}
	value, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return Background{}, fmt.Errorf("value: %w", err)
	}
	if value == 0 {
		value = minBackground
	}
	return Background{
		Region: Definition{Name: "background", X: vals[0], Y: vals[1], W: vals[2], H: vals[3]},
		Value:  value,
	}, nil
}
