// Package archivetest builds in-memory DILA-style archives for tests.
package archivetest

import (
	"archive/tar"
	"bytes"
	"fmt"
	"html"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// Entry is one file in a test tarball.
type Entry struct {
	Name string
	Body []byte
}

// File returns an entry with a string body.
func File(name, body string) Entry {
	return Entry{Name: name, Body: []byte(body)}
}

// TarGz returns a gzip-compressed tarball holding entries in order.
func TarGz(t testing.TB, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, e := range entries {
		hdr := &tar.Header{
			Name:     e.Name,
			Mode:     0o644,
			Size:     int64(len(e.Body)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header %s: %v", e.Name, err)
		}
		if _, err := tw.Write(e.Body); err != nil {
			t.Fatalf("write %s: %v", e.Name, err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

// JudicialXML renders a minimal TEXTE_JURI_JUDI document.
// An empty formation omits the FORMATION element.
func JudicialXML(id, formation, contenu string) string {
	var judi string
	if formation != "" {
		judi = fmt.Sprintf("<META_JURI_JUDI><FORMATION>%s</FORMATION></META_JURI_JUDI>", html.EscapeString(formation))
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<TEXTE_JURI_JUDI>
<META>
<META_COMMUN><ID>%s</ID><NATURE>ARRET</NATURE></META_COMMUN>
<META_SPEC><META_JURI><TITRE>Cour de cassation</TITRE><DATE_DEC>2023-10-19</DATE_DEC></META_JURI>%s</META_SPEC>
</META>
<TEXTE><BLOC_TEXTUEL><CONTENU>%s</CONTENU></BLOC_TEXTUEL></TEXTE>
</TEXTE_JURI_JUDI>`, html.EscapeString(id), judi, html.EscapeString(contenu))
}

// JudicialXMLWithoutBody renders a TEXTE_JURI_JUDI document that has no
// CONTENU element.
func JudicialXMLWithoutBody(id string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<TEXTE_JURI_JUDI><META><META_COMMUN><ID>%s</ID></META_COMMUN></META></TEXTE_JURI_JUDI>`, html.EscapeString(id))
}
