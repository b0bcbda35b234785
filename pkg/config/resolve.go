package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	missingValue = "???"
	envResolver  = "oc.env"
)

var (
	interpolationPattern      = regexp.MustCompile(`\$\{([^${}]+)\}`)
	wholeInterpolationPattern = regexp.MustCompile(`^\$\{([^${}]+)\}$`)
)

type resolveState int

const (
	unresolved resolveState = iota
	resolving
	resolved
)

type resolver struct {
	root      *yaml.Node
	state     map[*yaml.Node]resolveState
	lookupEnv func(string) (string, bool)
}

func newResolver(root *yaml.Node) *resolver {
	return &resolver{
		root:      root,
		state:     make(map[*yaml.Node]resolveState),
		lookupEnv: os.LookupEnv,
	}
}

// resolve replaces interpolations in place and rejects missing values.
func (r *resolver) resolve(node *yaml.Node, path string) error {
	node = deref(node)

	switch r.state[node] {
	case resolved:
		return nil
	case resolving:
		return errors.Wrapf(ErrInterpolation, "cycle detected at %s", path)
	case unresolved:
	}

	r.state[node] = resolving

	var err error

	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content) && err == nil; i += 2 {
			err = r.resolve(node.Content[i+1], joinKey(path, node.Content[i].Value))
		}
	case yaml.SequenceNode, yaml.DocumentNode:
		for i := 0; i < len(node.Content) && err == nil; i++ {
			err = r.resolve(node.Content[i], joinKey(path, strconv.Itoa(i)))
		}
	case yaml.ScalarNode:
		err = r.resolveScalar(node, path)
	}

	if err != nil {
		return err
	}

	r.state[node] = resolved

	return nil
}

func (r *resolver) resolveScalar(node *yaml.Node, path string) error {
	if node.ShortTag() != "!!str" {
		return nil
	}

	if node.Value == missingValue {
		return errors.Wrap(ErrMissingValue, path)
	}

	if !strings.Contains(node.Value, "${") {
		return nil
	}

	if whole := wholeInterpolationPattern.FindStringSubmatch(node.Value); whole != nil {
		target, err := r.target(whole[1], path)
		if err != nil {
			return err
		}

		*node = *cloneNode(target)

		return nil
	}

	var (
		builder strings.Builder
		last    int
	)

	for _, loc := range interpolationPattern.FindAllStringSubmatchIndex(node.Value, -1) {
		target, err := r.target(node.Value[loc[2]:loc[3]], path)
		if err != nil {
			return err
		}

		if target.Kind != yaml.ScalarNode {
			return errors.Wrapf(ErrInterpolation, "%s: %s is not a scalar", path, node.Value[loc[2]:loc[3]])
		}

		builder.WriteString(node.Value[last:loc[0]])
		builder.WriteString(target.Value)

		last = loc[1]
	}

	builder.WriteString(node.Value[last:])
	node.Value = builder.String()

	return nil
}

func (r *resolver) target(expr, path string) (*yaml.Node, error) {
	expr = strings.TrimSpace(expr)

	if name, args, ok := strings.Cut(expr, ":"); ok {
		if name != envResolver {
			return nil, errors.Wrapf(ErrInterpolation, "%s: unknown resolver %s", path, name)
		}

		return r.env(args, path)
	}

	node, err := lookup(r.root, splitKey(expr))
	if err != nil {
		return nil, errors.Wrapf(ErrInterpolation, "%s: ${%s}: %s", path, expr, err)
	}

	err = r.resolve(node, expr)
	if err != nil {
		return nil, err
	}

	return deref(node), nil
}

func (r *resolver) env(args, path string) (*yaml.Node, error) {
	name, def, hasDefault := strings.Cut(args, ",")
	name = strings.TrimSpace(name)

	value, ok := r.lookupEnv(name)
	if !ok {
		if !hasDefault {
			return nil, errors.Wrapf(ErrInterpolation, "%s: environment variable %s is not set", path, name)
		}

		value = strings.TrimSpace(def)
	}

	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}, nil
}
