// Package authflow runs device authentication trees.
//
// A tree is a set of named nodes loaded from YAML. Each node is a collector,
// a store or one of the three device decisions, and either names the next
// node or branches on "true"/"false". The terminals are "success" and
// "failure".
//
// # Tree Definition
//
//	start: collect
//	nodes:
//	  collect:
//	    type: collector
//	    config:
//	      profile: true
//	      location: true
//	    next: match
//	  match:
//	    type: contextMatch
//	    outcomes:
//	      "true": nearby
//	      "false": failure
//	  nearby:
//	    type: locationRange
//	    config:
//	      distanceKm: "100"
//	    outcomes:
//	      "true": save
//	      "false": failure
//	  save:
//	    type: store
//	    config:
//	      attributesToPersist: [PROFILE, LOCATION]
//	    next: success
//
// # Execution
//
// Executor.Start creates an attempt and runs nodes until one needs input from
// the client. The attempt is then saved in a session.Store and the request
// value is returned with status "callback". Executor.Resume loads the attempt
// and hands the client's answer to the suspended node.
//
//	tree, err := authflow.LoadTree("config/tree.yaml")
//	executor, err := authflow.NewExecutor(tree, authflow.Dependencies{
//		Resolver: identity.NewResolver(repo),
//		Records:  device.NewRecordRepository(repo),
//	}, session.NewInMemStore(session.DefaultAttemptTTL))
//
//	result, err := executor.Start(ctx, "alice")
//	// result.Status == authflow.StatusCallback, result.Callback is the request
//	result, err = executor.Resume(ctx, result.AttemptID, submission)
//
// A step error ends the attempt with status "error" and the error's message.
// The attempt is deleted, so the client has to start over.
package authflow
