package domain

// Payload is one XML file read from an archive.
type Payload struct {
	// Path is the entry path inside the archive, used for error context.
	Path string

	// Revision labels the top-level archive the payload came from.
	Revision string

	// Data is the raw XML bytes.
	Data []byte
}

// Bucket is one archive folder's worth of payloads.
type Bucket struct {
	// Path is the folder path inside the archive.
	Path string

	// Payloads are the XML files found directly in the folder.
	Payloads []Payload
}

// ArchiveInfo describes an archive before it is read.
type ArchiveInfo struct {
	// Name is the archive base name.
	Name string

	// Revision orders versions coming from different archives. It is the
	// timestamp embedded in Name when there is one, otherwise the
	// modification or read time of the source.
	Revision string

	// Path is where the archive was opened from, if anywhere.
	Path string

	// Size is the archive size in bytes; zero when unknown.
	Size int64

	// Digest is the hex SHA-256 of the archive bytes.
	// Empty for directory sources, which are never recorded in the ledger.
	Digest string
}

// RecordKind tags the source schema of a RawRecord.
type RecordKind string

// Supported source schemas.
const (
	// KindJudicial is a TEXTE_JURI_JUDI document (CASS, INCA, CAPP).
	KindJudicial RecordKind = "judicial"

	// KindAdministrative is a TEXTE_JURI_ADMIN document (JADE).
	KindAdministrative RecordKind = "administrative"
)

// RawRecord is a parsed payload before normalisation.
//
// ID and Contenu are required and validated by the parser; the remaining
// fields are optional and may be empty.
type RawRecord struct {
	Kind     RecordKind
	Path     string
	Revision string

	// Required.
	ID      string
	Contenu string

	// Optional.
	Titre    string
	Chambre  string
	Date     string
	Metadata map[string]string
}
