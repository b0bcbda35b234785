package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	fileExtension = ".yaml"
	keySeparator  = "."
	yamlIndent    = 2
)

// Config is a resolved, read-only configuration tree.
type Config struct {
	root *yaml.Node
}

// Load reads <dir>/<name>.yaml, applies the overrides in order and resolves the result.
func Load(dir, name string, overrides ...string) (*Config, error) {
	fileName := filepath.Join(dir, strings.TrimSuffix(name, fileExtension)+fileExtension)

	content, err := os.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read config file %s", fileName)
	}

	cfg, err := Parse(content, overrides...)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load config file %s", fileName)
	}

	return cfg, nil
}

// Parse builds a configuration from YAML content. Overrides are applied before resolution.
func Parse(content []byte, overrides ...string) (*Config, error) {
	doc := &yaml.Node{}

	err := yaml.Unmarshal(content, doc)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse yaml")
	}

	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root = doc.Content[0]
	}

	if root.Kind != yaml.MappingNode {
		return nil, errors.Wrap(ErrNotMapping, "top level of the configuration")
	}

	cfg := &Config{root: root}

	for _, raw := range overrides {
		ovr, err := parseOverride(raw)
		if err != nil {
			return nil, err
		}

		err = cfg.apply(ovr)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to apply override %q", raw)
		}
	}

	err = newResolver(cfg.root).resolve(cfg.root, "")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Has reports whether the key exists.
func (c *Config) Has(key string) bool {
	_, err := lookup(c.root, splitKey(key))

	return err == nil
}

// Node returns a copy of the node stored under key.
func (c *Config) Node(key string) (*yaml.Node, error) {
	node, err := lookup(c.root, splitKey(key))
	if err != nil {
		return nil, errors.Wrap(err, key)
	}

	return cloneNode(node), nil
}

// Value decodes the node stored under key into a Go value.
// Scalars become string, int, float64, bool or nil.
func (c *Config) Value(key string) (any, error) {
	node, err := lookup(c.root, splitKey(key))
	if err != nil {
		return nil, errors.Wrap(err, key)
	}

	var value any

	err = node.Decode(&value)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode %s", key)
	}

	return value, nil
}

// String returns the literal text of the scalar stored under key.
func (c *Config) String(key string) (string, error) {
	node, err := lookup(c.root, splitKey(key))
	if err != nil {
		return "", errors.Wrap(err, key)
	}

	if node.Kind != yaml.ScalarNode {
		return "", errors.Wrap(ErrNotScalar, key)
	}

	return node.Value, nil
}

// Marshal serializes the sub-tree stored under key. An empty key serializes the whole configuration.
func (c *Config) Marshal(key string) ([]byte, error) {
	node := c.root

	if key != "" {
		var err error

		node, err = lookup(c.root, splitKey(key))
		if err != nil {
			return nil, errors.Wrap(err, key)
		}
	}

	buf := &bytes.Buffer{}
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(yamlIndent)

	err := enc.Encode(cloneNode(node))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to encode %s", key)
	}

	err = enc.Close()
	if err != nil {
		return nil, errors.Wrap(err, "unable to close encoder")
	}

	return buf.Bytes(), nil
}

func splitKey(key string) []string {
	if key == "" {
		return nil
	}

	return strings.Split(key, keySeparator)
}

func joinKey(parent, child string) string {
	if parent == "" {
		return child
	}

	return parent + keySeparator + child
}

func deref(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}

	return node
}

// mappingIndex returns the index of the value node of key, or -1.
func mappingIndex(node *yaml.Node, key string) int {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return i + 1
		}
	}

	return -1
}

func lookup(node *yaml.Node, keys []string) (*yaml.Node, error) {
	curr := deref(node)

	for _, key := range keys {
		switch curr.Kind {
		case yaml.MappingNode:
			idx := mappingIndex(curr, key)
			if idx < 0 {
				return nil, ErrKeyNotFound
			}

			curr = deref(curr.Content[idx])
		case yaml.SequenceNode:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(curr.Content) {
				return nil, ErrKeyNotFound
			}

			curr = deref(curr.Content[idx])
		default:
			return nil, ErrKeyNotFound
		}
	}

	return curr, nil
}

func cloneNode(node *yaml.Node) *yaml.Node {
	node = deref(node)
	clone := *node
	clone.Anchor = ""
	clone.Content = make([]*yaml.Node, len(node.Content))

	for i, child := range node.Content {
		clone.Content[i] = cloneNode(child)
	}

	return &clone
}
