// Package auth provides the identity primitives of the enrollment service.
//
// This package implements:
//   - Password hashing and verification (bcrypt)
//   - Bearer token issuance (HS256 JWT)
//   - Bearer token validation in one of two trust modes, selected once at startup:
//     a shared symmetric key, or an external authority's published signing keys
//   - The typed claims principal handed to authorization and provisioning
//
// Nothing in this package touches the user store or HTTP; those live in
// services, repositories and middleware.
package auth
