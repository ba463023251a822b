package authflow

import (
	"context"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tendant/device-idm/pkg/collector"
	"github.com/tendant/device-idm/pkg/device"
	"github.com/tendant/device-idm/pkg/deviceattr"
	"github.com/tendant/device-idm/pkg/identity"
)

// Step runs one tree node.
type Step interface {
	// Type returns the node type this step implements
	Type() string

	// Execute performs the node's logic
	Execute(ctx context.Context, flowContext *FlowContext) (*StepResult, error)
}

// Dependencies are the collaborators steps are built with.
type Dependencies struct {
	Resolver *identity.Resolver
	Records  device.RecordRepository
}

// StoreConfig configures a store node.
type StoreConfig struct {
	AttributesToPersist []string `yaml:"attributesToPersist"`
}

// JailbreakConfig configures a jailbreak node.
type JailbreakConfig struct {
	ScoreThreshold string `yaml:"scoreThreshold"`
}

// LocationRangeConfig configures a locationRange node.
type LocationRangeConfig struct {
	DistanceKm string `yaml:"distanceKm"`
}

// DefaultStoreConfig persists every collectable attribute.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{AttributesToPersist: deviceattr.Names(deviceattr.Collectable)}
}

// BuildStep creates the step for node.
func BuildStep(name string, node Node, deps Dependencies) (Step, error) {
	switch node.Type {
	case NodeCollector:
		cfg := collector.DefaultConfig()
		if err := decodeConfig(node.Config, &cfg); err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
		c, err := collector.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
		return &CollectorStep{collector: c}, nil

	case NodeStore:
		cfg := DefaultStoreConfig()
		if err := decodeConfig(node.Config, &cfg); err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
		kinds := deviceattr.ParseKinds(cfg.AttributesToPersist)
		return &StoreStep{store: device.NewStore(deps.Resolver, deps.Records, kinds)}, nil

	case NodeContextMatch:
		return &DecisionStep{nodeType: node.Type, evaluator: device.NewContextMatch(deps.Resolver, deps.Records)}, nil

	case NodeJailbreak:
		var cfg JailbreakConfig
		if err := decodeConfig(node.Config, &cfg); err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
		threshold, err := device.ParseScoreThreshold(cfg.ScoreThreshold)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
		return &DecisionStep{nodeType: node.Type, evaluator: device.NewJailbreakVerification(deps.Resolver, threshold)}, nil

	case NodeLocationRange:
		var cfg LocationRangeConfig
		if err := decodeConfig(node.Config, &cfg); err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
		distanceKm, err := device.ParseDistanceKm(cfg.DistanceKm)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
		return &DecisionStep{nodeType: node.Type, evaluator: device.NewLocationRange(deps.Resolver, deps.Records, distanceKm)}, nil
	}
	return nil, fmt.Errorf("node %q: unknown type %q", name, node.Type)
}

// decodeConfig decodes a node's config block over the defaults in out.
// An absent block leaves out unchanged.
func decodeConfig(config yaml.Node, out interface{}) error {
	if config.Kind == 0 {
		return nil
	}
	if err := config.Decode(out); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// CollectorStep requests device attributes and records the client's answer
type CollectorStep struct {
	collector *collector.Collector
}

func (s *CollectorStep) Type() string {
	return NodeCollector
}

func (s *CollectorStep) Execute(ctx context.Context, flowContext *FlowContext) (*StepResult, error) {
	out, err := s.collector.Process(flowContext.State, flowContext.Callback)
	if err != nil {
		return nil, err
	}
	if !out.Submitted {
		return &StepResult{Suspend: true, Callback: out.Request}, nil
	}
	return &StepResult{State: out.State}, nil
}

// StoreStep persists the collected device against the user
type StoreStep struct {
	store *device.Store
}

func (s *StoreStep) Type() string {
	return NodeStore
}

func (s *StoreStep) Execute(ctx context.Context, flowContext *FlowContext) (*StepResult, error) {
	if err := s.store.Save(ctx, flowContext.State); err != nil {
		return nil, err
	}
	return &StepResult{State: flowContext.State}, nil
}

// DecisionStep branches on an evaluator's result
type DecisionStep struct {
	nodeType  string
	evaluator device.Evaluator
}

func (s *DecisionStep) Type() string {
	return s.nodeType
}

func (s *DecisionStep) Execute(ctx context.Context, flowContext *FlowContext) (*StepResult, error) {
	ok, err := s.evaluator.Evaluate(ctx, flowContext.State)
	if err != nil {
		return nil, err
	}
	return &StepResult{Outcome: strconv.FormatBool(ok), State: flowContext.State}, nil
}
