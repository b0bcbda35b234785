package pipeline

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// ExecuteStepsKey is the configuration key listing the stages to run.
const ExecuteStepsKey = "main.execute_steps"

// Selection is the set of stage names requested for a run.
type Selection struct {
	names []string
	set   map[string]struct{}
}

// NewSelection builds a selection from stage names. Duplicates are ignored.
func NewSelection(names ...string) Selection {
	sel := Selection{set: make(map[string]struct{}, len(names))}

	for _, name := range names {
		if _, ok := sel.set[name]; ok {
			continue
		}

		sel.set[name] = struct{}{}
		sel.names = append(sel.names, name)
	}

	return sel
}

// Contains reports whether the stage is selected.
func (s Selection) Contains(name string) bool {
	_, ok := s.set[name]

	return ok
}

// Names returns the selected names in the order they were given.
func (s Selection) Names() []string {
	return append([]string(nil), s.names...)
}

// Unknown returns the selected names that are not part of known.
// The pipeline ignores them.
func (s Selection) Unknown(known ...string) []string {
	knownSet := make(map[string]struct{}, len(known))
	for _, name := range known {
		knownSet[name] = struct{}{}
	}

	var unknown []string

	for _, name := range s.names {
		if _, ok := knownSet[name]; !ok {
			unknown = append(unknown, name)
		}
	}

	return unknown
}

// ResolveExecuteSteps turns the execution list into a selection.
//
// The list is either a comma-separated string, as typically given on the command line, or a
// sequence of scalars. Names are trimmed and empty names are dropped. Any other shape is reported
// as a *TypeMismatchError.
func ResolveExecuteSteps(node *yaml.Node) (Selection, error) {
	if node == nil {
		return Selection{}, &TypeMismatchError{Key: ExecuteStepsKey, Got: "nothing"}
	}

	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() != "!!str" {
			return Selection{}, &TypeMismatchError{Key: ExecuteStepsKey, Got: describe(node)}
		}

		return NewSelection(cleanNames(strings.Split(node.Value, ","))...), nil
	case yaml.SequenceNode:
		names := make([]string, 0, len(node.Content))

		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode || item.ShortTag() == "!!null" {
				return Selection{}, &TypeMismatchError{Key: ExecuteStepsKey, Got: "a list containing " + describe(item)}
			}

			names = append(names, item.Value)
		}

		return NewSelection(cleanNames(names)...), nil
	default:
		return Selection{}, &TypeMismatchError{Key: ExecuteStepsKey, Got: describe(node)}
	}
}

func cleanNames(raw []string) []string {
	names := make([]string, 0, len(raw))

	for _, name := range raw {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}

	return names
}

func describe(node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a list"
	case yaml.AliasNode:
		return "an alias"
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return "null"
		}

		return "a scalar " + node.ShortTag() + " " + node.Value
	default:
		return "an empty value"
	}
}
