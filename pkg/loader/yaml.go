package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/jlens/internal/jsonvalue"
)

// loadYAML decodes every document through yaml.Node so mapping order
// survives.
func loadYAML(input []byte) (jsonvalue.Value, error) {
	dec := yaml.NewDecoder(bytes.NewReader(input))
	var docs []jsonvalue.Value
	for {
		var node yaml.Node
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return jsonvalue.Value{}, err
		}
		if len(node.Content) == 0 {
			continue
		}
		v, err := fromNode(&node)
		if err != nil {
			return jsonvalue.Value{}, err
		}
		docs = append(docs, v)
	}
	switch len(docs) {
	case 0:
		return jsonvalue.Value{}, ErrEmptyInput
	case 1:
		return docs[0], nil
	default:
		return jsonvalue.NewArray(docs...), nil
	}
}

const maxAliasDepth = 64

func fromNode(n *yaml.Node) (jsonvalue.Value, error) {
	return convertNode(n, 0)
}

func convertNode(n *yaml.Node, aliases int) (jsonvalue.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return jsonvalue.NewNull(), nil
		}
		return convertNode(n.Content[0], aliases)
	case yaml.AliasNode:
		if aliases >= maxAliasDepth {
			return jsonvalue.Value{}, fmt.Errorf("line %d: alias nesting too deep", n.Line)
		}
		return convertNode(n.Alias, aliases+1)
	case yaml.SequenceNode:
		elems := make([]jsonvalue.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := convertNode(c, aliases)
			if err != nil {
				return jsonvalue.Value{}, err
			}
			elems = append(elems, v)
		}
		return jsonvalue.NewArray(elems...), nil
	case yaml.MappingNode:
		members := make([]jsonvalue.Member, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, vn := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return jsonvalue.Value{}, fmt.Errorf("line %d: only scalar mapping keys are supported", k.Line)
			}
			v, err := convertNode(vn, aliases)
			if err != nil {
				return jsonvalue.Value{}, err
			}
			members = append(members, jsonvalue.Member{Key: k.Value, Value: v})
		}
		return jsonvalue.NewObject(members...), nil
	case yaml.ScalarNode:
		var scalar any
		if err := n.Decode(&scalar); err != nil {
			return jsonvalue.Value{}, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return jsonvalue.FromInterface(scalar)
	default:
		return jsonvalue.Value{}, fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}
