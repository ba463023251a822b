// Package identity is the user store that device records are persisted against.
//
// A user has a username, an active flag, and any number of multi-valued string
// attributes. Attribute writes are staged with SetAttribute and become visible
// only after Commit, mirroring a "set then store" identity repository.
//
// # Backends
//
//	repo := identity.NewInMemoryRepository()
//	repo, err := identity.NewFileRepository("./data")
//	repo := identity.NewPostgresRepository(pool)
//	repo := identity.NewMongoRepository(db)
//
// or through the factory:
//
//	repo, err := identity.NewRepository("postgres", identity.RepositoryConfig{DB: pool})
//
// # Resolving the user of an attempt
//
//	resolver := identity.NewResolver(repo)
//	user, err := resolver.Resolve(ctx, state)
//
// Resolve fails with an IDENTITY_RESOLUTION_ERROR carrying one of two stable
// messages: MsgNoUsername or MsgUserNotFound.
package identity
