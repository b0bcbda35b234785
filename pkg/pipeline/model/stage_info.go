package model

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// EntryPoint is the entry point every stage is started with.
const EntryPoint = "main"

// Parameters maps a stage parameter name to a scalar value.
type Parameters map[string]any

// Keys returns the parameter names in lexical order.
func (p Parameters) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Format returns the textual form of a parameter, as passed on a command line.
// Values are written the way the stage scripts print them: nil is "None", booleans are
// "True" or "False" and floats always carry a decimal point or an exponent.
func (p Parameters) Format(key string) string {
	switch v := p[key].(type) {
	case nil:
		return "None"
	case bool:
		if v {
			return "True"
		}

		return "False"
	case float64:
		return formatFloat(v)
	case float32:
		return formatFloat(float64(v))
	default:
		return fmt.Sprint(v)
	}
}

// formatFloat uses the shortest representation, with an exponent below 1e-4 and from 1e16.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)

	exp, err := strconv.Atoi(sci[strings.LastIndexByte(sci, 'e')+1:])
	if err == nil && (exp < -4 || exp >= 16) {
		return sci
	}

	str := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(str, ".") {
		str += ".0"
	}

	return str
}

// StageInfo describes a stage once its parameters are built.
type StageInfo struct {
	Name       string
	Dir        string
	EntryPoint string
	Parameters Parameters
	// Inputs are the artifact references the stage consumes.
	Inputs []string
	// Outputs are the artifact names the stage produces.
	Outputs []string
}

var (
	StartStage = &StageInfo{Name: "start"}
	EndStage   = &StageInfo{Name: "end"}
)
