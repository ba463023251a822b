package authflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Terminal node names.
const (
	Success = "success"
	Failure = "failure"
)

// Node types.
const (
	NodeCollector     = "collector"
	NodeStore         = "store"
	NodeContextMatch  = "contextMatch"
	NodeJailbreak     = "jailbreak"
	NodeLocationRange = "locationRange"
)

// Decision outcomes.
const (
	OutcomeTrue  = "true"
	OutcomeFalse = "false"
)

// Tree is an authentication tree definition.
type Tree struct {
	Start string          `yaml:"start"`
	Nodes map[string]Node `yaml:"nodes"`
}

// Node is one tree node. Collector and store nodes continue to Next; decision
// nodes branch on Outcomes.
type Node struct {
	Type     string            `yaml:"type"`
	Config   yaml.Node         `yaml:"config"`
	Next     string            `yaml:"next"`
	Outcomes map[string]string `yaml:"outcomes"`
}

func isDecision(nodeType string) bool {
	switch nodeType {
	case NodeContextMatch, NodeJailbreak, NodeLocationRange:
		return true
	}
	return false
}

func isTerminal(name string) bool {
	return name == Success || name == Failure
}

// ParseTree decodes and validates a YAML tree definition.
func ParseTree(data []byte) (*Tree, error) {
	var tree Tree
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse tree: %w", err)
	}
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	return &tree, nil
}

// ParseTreeJSONC decodes a tree written as JSON with comments and trailing commas.
func ParseTreeJSONC(data []byte) (*Tree, error) {
	var doc interface{}
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tree: %w", err)
	}
	converted, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert tree: %w", err)
	}
	return ParseTree(converted)
}

// LoadTree reads a tree definition from path. Files ending in .json or
// .jsonc are read as JSONC, anything else as YAML.
func LoadTree(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return ParseTreeJSONC(data)
	default:
		return ParseTree(data)
	}
}

// Validate checks node types and that every transition reaches a node or terminal.
func (t *Tree) Validate() error {
	if t.Start == "" {
		return fmt.Errorf("tree has no start node")
	}
	if _, ok := t.Nodes[t.Start]; !ok {
		return fmt.Errorf("start node %q is not defined", t.Start)
	}

	for _, name := range t.nodeNames() {
		node := t.Nodes[name]
		if isTerminal(name) {
			return fmt.Errorf("node name %q is reserved", name)
		}

		switch {
		case node.Type == NodeCollector || node.Type == NodeStore:
			if len(node.Outcomes) > 0 {
				return fmt.Errorf("node %q: %s nodes use next, not outcomes", name, node.Type)
			}
			if err := t.checkTarget(name, node.Next); err != nil {
				return err
			}
		case isDecision(node.Type):
			if node.Next != "" {
				return fmt.Errorf("node %q: %s nodes use outcomes, not next", name, node.Type)
			}
			if len(node.Outcomes) != 2 {
				return fmt.Errorf("node %q: outcomes must be exactly %q and %q", name, OutcomeTrue, OutcomeFalse)
			}
			for _, outcome := range []string{OutcomeTrue, OutcomeFalse} {
				target, ok := node.Outcomes[outcome]
				if !ok {
					return fmt.Errorf("node %q: missing outcome %q", name, outcome)
				}
				if err := t.checkTarget(name, target); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("node %q: unknown type %q", name, node.Type)
		}
	}
	return nil
}

func (t *Tree) checkTarget(from, target string) error {
	if target == "" {
		return fmt.Errorf("node %q: missing transition", from)
	}
	if isTerminal(target) {
		return nil
	}
	if _, ok := t.Nodes[target]; !ok {
		return fmt.Errorf("node %q: transition to undefined node %q", from, target)
	}
	return nil
}

// nodeNames returns node names sorted, so validation errors are stable.
func (t *Tree) nodeNames() []string {
	names := make([]string, 0, len(t.Nodes))
	for name := range t.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// next returns the node that follows name for the given outcome.
func (t *Tree) next(name, outcome string) string {
	node := t.Nodes[name]
	if outcome == "" {
		return node.Next
	}
	return node.Outcomes[outcome]
}
