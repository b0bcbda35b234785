package config

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type overrideOp int

const (
	opSet overrideOp = iota
	opAdd
	opUpsert
	opDelete
)

type override struct {
	op    overrideOp
	keys  []string
	value *yaml.Node
}

func parseOverride(raw string) (override, error) {
	ovr := override{op: opSet}
	rest := raw

	switch {
	case strings.HasPrefix(rest, "++"):
		ovr.op = opUpsert
		rest = rest[2:]
	case strings.HasPrefix(rest, "+"):
		ovr.op = opAdd
		rest = rest[1:]
	case strings.HasPrefix(rest, "~"):
		ovr.op = opDelete
		rest = rest[1:]
	}

	key, value, hasValue := strings.Cut(rest, "=")
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") {
		return ovr, errors.Wrapf(ErrInvalidOverride, "bad key in %q", raw)
	}

	ovr.keys = splitKey(key)

	if ovr.op == opDelete {
		return ovr, nil
	}

	if !hasValue {
		return ovr, errors.Wrapf(ErrInvalidOverride, "expected key=value, got %q", raw)
	}

	node, err := parseValue(value)
	if err != nil {
		return ovr, errors.Wrapf(ErrInvalidOverride, "bad value in %q: %s", raw, err)
	}

	ovr.value = node

	return ovr, nil
}

func parseValue(value string) (*yaml.Node, error) {
	if strings.TrimSpace(value) == "" {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}, nil
	}

	doc := &yaml.Node{}

	err := yaml.Unmarshal([]byte(value), doc)
	if err != nil {
		return nil, err
	}

	if len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}

	return doc.Content[0], nil
}

// parent returns the mapping holding the last key of keys.
// Intermediate mappings are created when create is set.
func (c *Config) parent(keys []string, create bool) (*yaml.Node, error) {
	curr := c.root

	for _, key := range keys[:len(keys)-1] {
		idx := mappingIndex(curr, key)
		if idx < 0 {
			if !create {
				return nil, errors.Wrap(ErrKeyNotFound, key)
			}

			child := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			curr.Content = append(curr.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, child)
			curr = child

			continue
		}

		curr = deref(curr.Content[idx])
		if curr.Kind != yaml.MappingNode {
			return nil, errors.Wrap(ErrNotMapping, key)
		}
	}

	return curr, nil
}

func (c *Config) apply(ovr override) error {
	parent, err := c.parent(ovr.keys, ovr.op == opAdd || ovr.op == opUpsert)
	if err != nil {
		return err
	}

	last := ovr.keys[len(ovr.keys)-1]
	idx := mappingIndex(parent, last)

	switch ovr.op {
	case opSet:
		if idx < 0 {
			return errors.Wrapf(ErrKeyNotFound, "%s, use +%s=... to add it", last, last)
		}

		parent.Content[idx] = ovr.value
	case opAdd:
		if idx >= 0 {
			return errors.Wrapf(ErrKeyExists, "%s, use ++%s=... to override it", last, last)
		}

		parent.Content = append(parent.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: last}, ovr.value)
	case opUpsert:
		if idx >= 0 {
			parent.Content[idx] = ovr.value

			return nil
		}

		parent.Content = append(parent.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: last}, ovr.value)
	case opDelete:
		if idx < 0 {
			return errors.Wrap(ErrKeyNotFound, last)
		}

		parent.Content = append(parent.Content[:idx-1], parent.Content[idx+1:]...)
	}

	return nil
}
