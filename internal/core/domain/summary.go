package domain

import "time"

// maxErrorSamples bounds IngestSummary.Errors.
const maxErrorSamples = 100

// DocumentError is a sampled document-level failure.
type DocumentError struct {
	Kind    string `json:"kind" yaml:"kind"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	TextID  string `json:"text_id,omitempty" yaml:"text_id,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// IngestSummary is the report emitted when an ingestion run completes.
type IngestSummary struct {
	RunID   string `json:"run_id" yaml:"run_id"`
	Archive string `json:"archive" yaml:"archive"`

	// Discovered counts XML payloads found in the archive.
	Discovered int `json:"discovered" yaml:"discovered"`
	// Parsed counts payloads that produced a raw record.
	Parsed int `json:"parsed" yaml:"parsed"`
	// Rejected counts parse errors and normalisation rejections.
	Rejected int `json:"rejected" yaml:"rejected"`
	// Inserted counts new text_ids.
	Inserted int `json:"inserted" yaml:"inserted"`
	// Updated counts stored versions replaced by a winning version.
	Updated int `json:"updated" yaml:"updated"`
	// Duplicate counts versions identical to the stored one.
	Duplicate int `json:"duplicate" yaml:"duplicate"`
	// Superseded counts versions that lost to a stored later revision.
	Superseded int `json:"superseded" yaml:"superseded"`
	// Failed counts unreadable archive entries and store write failures.
	Failed int `json:"failed" yaml:"failed"`

	// Skipped is set when the archive was already processed.
	Skipped bool `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	// Interrupted is set when the run was cancelled before completion.
	Interrupted bool `json:"interrupted,omitempty" yaml:"interrupted,omitempty"`

	Errors []DocumentError `json:"errors,omitempty" yaml:"errors,omitempty"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

// RecordError appends a sample, keeping at most maxErrorSamples.
func (s *IngestSummary) RecordError(e DocumentError) {
	if len(s.Errors) < maxErrorSamples {
		s.Errors = append(s.Errors, e)
	}
}

// Stored returns the number of documents that reached the store.
func (s *IngestSummary) Stored() int {
	return s.Inserted + s.Updated + s.Duplicate + s.Superseded
}

// Duration returns how long the run took.
func (s *IngestSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// ArchiveRun is a ledger entry for an archive that was fully ingested.
type ArchiveRun struct {
	Digest      string
	Name        string
	RunID       string
	Discovered  int
	Inserted    int
	Updated     int
	Duplicate   int
	Superseded  int
	Rejected    int
	Failed      int
	ProcessedAt time.Time
}
