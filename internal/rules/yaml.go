package rules

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/SethMMorton/tidymoney/internal/domain"
)

// Strict YAML decoding helpers. The rule file is user-authored, so every
// mapping is decoded key by key and anything unrecognized is rejected with
// the enclosing context named; a misspelled field must never be silently
// ignored.

// eachKey walks the key/value pairs of a mapping node in document order.
func eachKey(node *yaml.Node, context string, fn func(key string, value *yaml.Node) error) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: %s must be a mapping, got %s on line %d",
			domain.ErrConfig, context, nodeKind(node), node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func errUnknownField(context, key string, node *yaml.Node) error {
	return fmt.Errorf("%w: unknown field %q in %s (line %d)",
		domain.ErrConfig, key, context, node.Line)
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.SequenceNode:
		return "a list"
	case yaml.MappingNode:
		return "a mapping"
	default:
		return "an unexpected node"
	}
}

func decodeString(node *yaml.Node, context string) (string, error) {
	if node.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("%w: %s must be a string, got %s on line %d",
			domain.ErrConfig, context, nodeKind(node), node.Line)
	}
	return node.Value, nil
}

func decodeBool(node *yaml.Node, context string) (bool, error) {
	var b bool
	if err := node.Decode(&b); err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean: %v", domain.ErrConfig, context, err)
	}
	return b, nil
}

func decodeInt(node *yaml.Node, context string) (*int, error) {
	n, err := strconv.Atoi(node.Value)
	if err != nil || node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("%w: %s must be an integer, got %q on line %d",
			domain.ErrConfig, context, node.Value, node.Line)
	}
	return &n, nil
}

// decodeDecimal parses a monetary bound exactly; the scale the user wrote
// is preserved by the decimal representation.
func decodeDecimal(node *yaml.Node, context string) (*decimal.Decimal, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("%w: %s must be a decimal amount, got %s on line %d",
			domain.ErrConfig, context, nodeKind(node), node.Line)
	}
	d, err := decimal.NewFromString(node.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: cannot read %q as a decimal amount",
			domain.ErrConfig, context, node.Value)
	}
	return &d, nil
}

// decodeDayOfYear reads a [month, day] two-element sequence.
func decodeDayOfYear(node *yaml.Node, context string) (*DayOfYear, error) {
	var pair []int
	if err := node.Decode(&pair); err != nil || len(pair) != 2 {
		return nil, fmt.Errorf("%w: %s must be a [month, day] pair (line %d)",
			domain.ErrConfig, context, node.Line)
	}
	return &DayOfYear{Month: pair[0], Day: pair[1]}, nil
}

func decodePattern(node *yaml.Node, context string) (Pattern, error) {
	s, err := decodeString(node, context)
	if err != nil {
		return Pattern{}, err
	}
	return NewPattern(s)
}
