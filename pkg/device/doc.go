// Package device stores device records against a user identity and evaluates
// trust decisions against them.
//
// A device record is a JSON object keyed by its "identifier" field. A user's
// records live together in one multi-valued identity attribute, one serialized
// record per value. Entries that cannot be parsed are kept as they are and are
// skipped when matching.
//
// # Overview
//
// The device package provides:
//   - Record codec (ParseRecord, Record.Serialize)
//   - Upsert of the collected attributes into a record collection
//   - Store, which resolves the user and persists the upserted collection
//   - Decision evaluators: ContextMatch, JailbreakVerification, LocationRange
//
// # Basic Usage
//
//	import "github.com/tendant/device-idm/pkg/device"
//
//	repo := identity.NewInMemoryRepository()
//	resolver := identity.NewResolver(repo)
//	records := device.NewRecordRepository(repo)
//
//	// Persist what the collector put into session state
//	store := device.NewStore(resolver, records, deviceattr.Collectable)
//	err := store.Save(ctx, state)
//
//	// Later, compare a fresh collection with what was stored
//	match := device.NewContextMatch(resolver, records)
//	ok, err := match.Evaluate(ctx, state)
//
//	// Reject devices that moved too far
//	distanceKm, _ := device.ParseDistanceKm("100")
//	inRange := device.NewLocationRange(resolver, records, distanceKm)
//	ok, err = inRange.Evaluate(ctx, state)
//
// # Concurrency
//
// Store.Save reads the whole collection, rewrites it in memory and writes it
// back. Two concurrent saves for the same user are last-write-wins.
//
// # Related Packages
//
//   - pkg/collector - Fills session state from the device submission
//   - pkg/identity - Users and their attributes
//   - pkg/authflow - Runs the store and evaluators as tree nodes
package device
