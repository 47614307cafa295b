// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ArchiveSource: Streams document buckets out of an archive
//   - Parser: Turns one XML payload into a raw record
//   - Normaliser: Turns a raw record into a canonical Decision
//   - DecisionStore: Decision persistence, listing and ranked search
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ArchiveLedger: Processed-archive bookkeeping. Without it, every run
//     reads the whole archive.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
