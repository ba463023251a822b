// Package errors provides structured error handling with error codes for device-idm.
//
// Every failure that ends an authentication step carries one of the codes below,
// so HTTP handlers and the tree executor can report a stable, machine-readable
// reason next to the human-readable message.
//
// # Error Codes
//
// Device context:
//   - ErrCodeMissingIdentifier: blank or absent device identifier
//   - ErrCodeProfileRequired: no device profile collected in this attempt
//   - ErrCodeLocationRequired: no device location collected in this attempt
//   - ErrCodePayloadFormat: malformed device attribute submission
//   - ErrCodeIdentityResolution: no username, or user absent or inactive
//   - ErrCodePersistence: identity store write failure
//
// Generic:
//   - ErrCodeInternal, ErrCodeInvalidInput, ErrCodeInvalidFormat,
//     ErrCodeNotFound, ErrCodeUnauthorized
//
// # Basic Usage
//
//	import "github.com/tendant/device-idm/pkg/errors"
//
//	if identifier == "" {
//		return errors.MissingIdentifier()
//	}
//
//	if err := repo.Commit(ctx, userID); err != nil {
//		return errors.Persistence(err, "failed to store device records")
//	}
//
// # Error Inspection
//
//	if errors.IsCode(err, errors.ErrCodeProfileRequired) {
//		// restart collection
//	}
//
//	status := errors.MapErrorCodeToHTTPStatus(errors.GetCode(err))
//
// Malformed device records that are already persisted are never reported
// through this package: they are preserved and skipped during matching.
package errors
