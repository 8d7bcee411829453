// Package domain defines the core domain types and interfaces.
//
// Model structs, repository contracts and collaborator interfaces live here,
// together with the sentinel errors callers match with errors.Is. No
// implementation code - just contracts, keeping interfaces on the consumer side.
package domain
