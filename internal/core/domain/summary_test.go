package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIngestSummary_RecordError_Caps(t *testing.T) {
	var s IngestSummary
	for i := 0; i < maxErrorSamples+25; i++ {
		s.RecordError(DocumentError{Kind: "parse", Message: "bad"})
	}
	assert.Len(t, s.Errors, maxErrorSamples)
}

func TestIngestSummary_Stored(t *testing.T) {
	s := IngestSummary{Inserted: 3, Updated: 1, Duplicate: 2, Superseded: 1, Rejected: 5, Failed: 1}
	assert.Equal(t, 7, s.Stored())
}

func TestIngestSummary_Duration(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	s := IngestSummary{StartedAt: start}
	assert.Zero(t, s.Duration())

	s.FinishedAt = start.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, s.Duration())
}
