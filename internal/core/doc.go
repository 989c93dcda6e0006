// Package core checks WOUDC extended CSV submissions against the table catalog.
//
// The package holds the domain logic independent of any transport. The web
// server, the CLI and the batch ingester all go through it.
//
// # Candidates and Reports
//
// A [CandidateFile] is what the validator sees of a submission: the declared
// [catalog.Identity] and the tables and columns actually present. [Validate]
// resolves the identity against a catalog snapshot and returns a [Report]
// listing every violation and notice in one pass:
//
//	cand := core.NewCandidate(catalog.Identity{Dataset: "OzoneSonde", Version: "1.0"}).
//	    AddTable("FLIGHT_SUMMARY", "IntegratedO3", "CorrectionCode").
//	    AddTable("PROFILE", "Pressure", "O3PartialPressure")
//	report := core.Validate(cand, cat, core.WithFormSearch())
//
// Only missing required tables and missing columns reject a file. Unknown
// tables and columns, absent optional tables and identity corrections are
// notices.
//
// # Service
//
// [Service] wraps Validate with the published catalog of a [catalog.Holder],
// a [Limiter] bounding concurrent work, metrics, and an optional
// [ReportStore] for keeping reports.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Every report entry kind carries a support code, see [CodeFor].
package core
