// Package normalisers groups the document formats cassation can ingest.
// Each subpackage provides a parser, which turns one XML payload into a
// domain.RawRecord, and a normaliser, which turns that record into a
// canonical domain.Decision.
//
// A subpackage exposes a driven.DocumentPipeline so that the ingestion
// coordinator can give every worker its own parser and normaliser.
package normalisers
