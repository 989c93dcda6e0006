// Package cli implements ecsvctl, the command line front end of the registry.
//
// Commands:
//
//	ecsvctl verify [--lax] [--no-metadata] [--no-form-search] [--concurrency N] [--format text|json|yaml] PATH...
//	ecsvctl ingest [--database-url URL] PATH...
//	ecsvctl catalog list
//	ecsvctl catalog show DATASET
//	ecsvctl catalog resolve DATASET VERSION [LEVEL [FORM]]
//	ecsvctl catalog check FILE
//
// verify and ingest accept files and directories; directories are walked for
// *.csv files. --lax checks only the core metadata tables; --no-metadata
// skips them. Both exit non-zero when any file is rejected or unreadable.
//
// The global --catalog flag (or CATALOG_PATH) replaces the built-in table
// definitions with a tables.yaml file.
package cli
