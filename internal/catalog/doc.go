// Package catalog holds the versioned table definitions for WOUDC extended CSV
// files and resolves a file's declared identity to the contract it must meet.
//
// # Shape
//
// A catalog is a tree built once from a YAML document:
//
//	dataset -> version -> leaf
//	dataset -> version -> level -> leaf
//	dataset -> version -> level -> form -> leaf
//
// Each [Leaf] lists required and optional tables and the ordered columns each
// table must carry. The depth below a version is read from the document and
// modelled by the [Layout] variants [DirectLeaf], [ByLevel] and
// [ByLevelAndForm]. All levels of one version share the same depth.
//
// # Lifecycle
//
// [Build] is the only operation that fails on problems in the definitions
// themselves, returning a [*SchemaError] that wraps [ErrMalformedSchema].
// A built [Catalog] is never modified. Long-running processes publish catalogs
// through a [Holder], which swaps in a freshly built catalog on reload so readers
// always see one complete tree.
//
// # Resolution
//
// [Catalog.Resolve] matches the dataset exactly, then the version exactly or by
// falling back to the highest declared version not above the requested one, and
// finally walks the level and form keys the version declares. Failures are
// [*ResolutionError] values that unwrap to [ErrUnknownDataset],
// [ErrUnsupportedVersion], [ErrUnknownLevel] or [ErrUnknownForm].
package catalog
