package authflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	idmerrors "github.com/tendant/device-idm/pkg/errors"
	"github.com/tendant/device-idm/pkg/session"
)

// maxSteps bounds one run so a tree that loops through decisions cannot spin forever.
const maxSteps = 64

// FlowContext carries state into a step
type FlowContext struct {
	// Node is the name of the node being executed
	Node string

	// State is the attempt's session state
	State session.State

	// Callback is the client's answer to this node's request. It is only set
	// for the node the attempt was suspended on.
	Callback string
}

// StepResult represents the result of executing a step
type StepResult struct {
	// Suspend stops the run and sends Callback to the client
	Suspend bool

	// Callback is the request value sent to the client when suspending
	Callback string

	// Outcome selects the branch of a decision node; empty follows next
	Outcome string

	// State replaces the attempt's session state
	State session.State
}

// Status is the state of an attempt after a run.
type Status string

const (
	StatusCallback Status = "callback"
	StatusSuccess  Status = "success"
	StatusFailure  Status = "failure"
	StatusError    Status = "error"
)

// Result is what a run reports back to the client
type Result struct {
	AttemptID uuid.UUID
	Status    Status
	Callback  string
	Message   string
	Code      idmerrors.ErrorCode
}

// Executor runs authentication trees
type Executor struct {
	tree     *Tree
	steps    map[string]Step
	attempts session.Store
}

// NewExecutor builds a step for every node of tree.
func NewExecutor(tree *Tree, deps Dependencies, attempts session.Store) (*Executor, error) {
	if err := tree.Validate(); err != nil {
		return nil, err
	}

	steps := make(map[string]Step, len(tree.Nodes))
	for _, name := range tree.nodeNames() {
		step, err := BuildStep(name, tree.Nodes[name], deps)
		if err != nil {
			return nil, err
		}
		steps[name] = step
	}

	return &Executor{
		tree:     tree,
		steps:    steps,
		attempts: attempts,
	}, nil
}

// Start begins a new attempt for username.
func (e *Executor) Start(ctx context.Context, username string) (Result, error) {
	attempt := session.Attempt{
		ID:    uuid.New(),
		Node:  e.tree.Start,
		State: session.NewState().WithString(session.UsernameKey, username),
	}
	slog.Info("Authentication attempt started", "attemptID", attempt.ID, "username", username)
	return e.run(ctx, attempt, "")
}

// Resume continues a suspended attempt with the client's callback value.
func (e *Executor) Resume(ctx context.Context, attemptID uuid.UUID, callback string) (Result, error) {
	attempt, err := e.attempts.Load(ctx, attemptID)
	if errors.Is(err, session.ErrAttemptNotFound) {
		return Result{}, idmerrors.NotFound("authentication attempt", attemptID.String())
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to load attempt: %w", err)
	}
	return e.run(ctx, attempt, callback)
}

func (e *Executor) run(ctx context.Context, attempt session.Attempt, callback string) (Result, error) {
	node := attempt.Node
	state := attempt.State

	for i := 0; i < maxSteps; i++ {
		if isTerminal(node) {
			return e.finish(ctx, attempt.ID, Status(node), "", "")
		}

		step := e.steps[node]
		result, err := step.Execute(ctx, &FlowContext{Node: node, State: state, Callback: callback})
		callback = ""
		if err != nil {
			slog.Error("Step failed", "attemptID", attempt.ID, "node", node, "type", step.Type(), "error", err)
			return e.finish(ctx, attempt.ID, StatusError, idmerrors.GetCode(err), idmerrors.GetMessage(err))
		}

		if result.Suspend {
			attempt.Node = node
			attempt.State = state
			if err := e.attempts.Save(ctx, attempt); err != nil {
				return Result{}, fmt.Errorf("failed to save attempt: %w", err)
			}
			return Result{AttemptID: attempt.ID, Status: StatusCallback, Callback: result.Callback}, nil
		}

		state = result.State
		next := e.tree.next(node, result.Outcome)
		slog.Debug("Step completed", "attemptID", attempt.ID, "node", node, "outcome", result.Outcome, "next", next)
		node = next
	}

	return e.finish(ctx, attempt.ID, StatusError, idmerrors.ErrCodeInternal, "authentication tree did not reach a terminal node")
}

// finish deletes the attempt and reports the final status.
func (e *Executor) finish(ctx context.Context, id uuid.UUID, status Status, code idmerrors.ErrorCode, message string) (Result, error) {
	if err := e.attempts.Delete(ctx, id); err != nil {
		slog.Warn("Failed to delete attempt", "attemptID", id, "error", err)
	}
	slog.Info("Authentication attempt finished", "attemptID", id, "status", status)
	return Result{AttemptID: id, Status: status, Code: code, Message: message}, nil
}
