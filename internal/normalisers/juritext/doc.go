// Package juritext reads DILA court-decision XML (the JURI, CASS, INCA, CAPP
// and JADE collections) and normalises it into domain.Decision values.
//
// Parsing and normalisation are separate stages. The Parser only checks
// that a payload is a decision document carrying an identifier and a body
// element; the Normaliser then cleans the fields and rejects records whose
// mandatory content turns out to be empty.
package juritext
