// Package postgres provides the PostgreSQL implementation of the decision
// store and the processed-archive ledger, built on gorm.
//
// The decisions table carries a generated tsvector column, search_vector,
// over titre (weight A) and contenu (weight B) using the french text search
// configuration, indexed with GIN and ranked with ts_rank. Upserts are a
// single INSERT ... ON CONFLICT statement whose update only fires when the
// incoming version outranks the stored one, so concurrent writers of the
// same text_id converge without application locks.
package postgres
