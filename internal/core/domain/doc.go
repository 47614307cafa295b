// Package domain defines the core business entities for cassation.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Decision: A canonical court decision, keyed by its text identifier
//   - RawRecord: A parsed XML payload before normalisation
//   - Bucket: One archive folder's worth of XML payloads
//   - IngestSummary: The counters reported by an ingestion run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
