package juritext

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/custodia-labs/cassation/internal/core/domain"
	"github.com/custodia-labs/cassation/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Root elements of the supported schemas.
const (
	rootJudicial       = "TEXTE_JURI_JUDI"
	rootAdministrative = "TEXTE_JURI_ADMIN"
)

// Metadata keys produced by the parser.
const (
	MetaNature          = "nature"
	MetaJuridiction     = "juridiction"
	MetaNumero          = "numero"
	MetaSolution        = "solution"
	MetaNumerosAffaires = "numeros_affaires"
	MetaPubliBull       = "publi_bull"
	MetaECLI            = "ecli"
	MetaFormDecAtt      = "form_dec_att"
	MetaDateDecAtt      = "date_dec_att"
	MetaTypeRec         = "type_rec"
	MetaPubliRecueil    = "publi_recueil"
)

// document mirrors the parts of a DILA decision we read. Judicial and
// administrative documents share it; only one META_JURI_* block is present.
type document struct {
	Meta struct {
		Commun struct {
			ID     *string `xml:"ID"`
			Nature string  `xml:"NATURE"`
		} `xml:"META_COMMUN"`
		Spec struct {
			Juri struct {
				Titre       string `xml:"TITRE"`
				DateDec     string `xml:"DATE_DEC"`
				Juridiction string `xml:"JURIDICTION"`
				Numero      string `xml:"NUMERO"`
				Solution    string `xml:"SOLUTION"`
			} `xml:"META_JURI"`
			Judi struct {
				Formation       string   `xml:"FORMATION"`
				NumerosAffaires []string `xml:"NUMEROS_AFFAIRES>NUMERO_AFFAIRE"`
				PubliBull       struct {
					Publie string `xml:"publie,attr"`
					Text   string `xml:",chardata"`
				} `xml:"PUBLI_BULL"`
				ECLI       string `xml:"ECLI"`
				FormDecAtt string `xml:"FORM_DEC_ATT"`
				DateDecAtt string `xml:"DATE_DEC_ATT"`
			} `xml:"META_JURI_JUDI"`
			Admin struct {
				Formation    string `xml:"FORMATION"`
				TypeRec      string `xml:"TYPE_REC"`
				PubliRecueil string `xml:"PUBLI_RECUEIL"`
			} `xml:"META_JURI_ADMIN"`
		} `xml:"META_SPEC"`
	} `xml:"META"`
	Contenu *richText `xml:"TEXTE>BLOC_TEXTUEL>CONTENU"`
}

// richText collects the character data of a mixed-content element.
// <br/> and the end of block elements become line breaks.
type richText struct {
	Text string
}

// UnmarshalXML implements xml.Unmarshaler.
func (r *richText) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	var b strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			depth++
			if strings.EqualFold(t.Name.Local, "br") {
				b.WriteByte('\n')
			}
		case xml.EndElement:
			if depth == 0 {
				r.Text = b.String()
				return nil
			}
			depth--
			switch strings.ToLower(t.Name.Local) {
			case "p", "div", "li", "tr", "h1", "h2", "h3", "h4":
				b.WriteByte('\n')
			}
		}
	}
}

// Parser decodes DILA decision XML into raw records.
// A Parser is not safe for concurrent use.
type Parser struct {
	charsetErr error
}

// NewParser creates a parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes one payload. All failures are *domain.ParseError.
func (p *Parser) Parse(payload domain.Payload) (*domain.RawRecord, error) {
	p.charsetErr = nil

	dec := xml.NewDecoder(bytes.NewReader(payload.Data))
	dec.CharsetReader = p.charsetReader

	root, err := rootElement(dec)
	if err != nil {
		return nil, p.parseError(payload.Path, err)
	}

	var kind domain.RecordKind
	switch root.Name.Local {
	case rootJudicial:
		kind = domain.KindJudicial
	case rootAdministrative:
		kind = domain.KindAdministrative
	default:
		return nil, &domain.ParseError{
			Path:   payload.Path,
			Reason: domain.ParseUnsupportedRoot,
			Err:    fmt.Errorf("root element %q", root.Name.Local),
		}
	}

	var doc document
	if err := dec.DecodeElement(&doc, &root); err != nil {
		return nil, p.parseError(payload.Path, err)
	}

	if doc.Meta.Commun.ID == nil {
		return nil, missing(payload.Path, "META/META_COMMUN/ID")
	}
	if doc.Contenu == nil {
		return nil, missing(payload.Path, "TEXTE/BLOC_TEXTUEL/CONTENU")
	}

	rec := &domain.RawRecord{
		Kind:     kind,
		Path:     payload.Path,
		Revision: payload.Revision,
		ID:       *doc.Meta.Commun.ID,
		Contenu:  doc.Contenu.Text,
		Titre:    doc.Meta.Spec.Juri.Titre,
		Date:     doc.Meta.Spec.Juri.DateDec,
		Metadata: make(map[string]string),
	}

	meta := rec.Metadata
	put(meta, MetaNature, doc.Meta.Commun.Nature)
	put(meta, MetaJuridiction, doc.Meta.Spec.Juri.Juridiction)
	put(meta, MetaNumero, doc.Meta.Spec.Juri.Numero)
	put(meta, MetaSolution, doc.Meta.Spec.Juri.Solution)

	switch kind {
	case domain.KindJudicial:
		judi := doc.Meta.Spec.Judi
		rec.Chambre = judi.Formation
		put(meta, MetaNumerosAffaires, strings.Join(nonEmpty(judi.NumerosAffaires), ", "))
		publi := judi.PubliBull.Publie
		if publi == "" {
			publi = judi.PubliBull.Text
		}
		put(meta, MetaPubliBull, publi)
		put(meta, MetaECLI, judi.ECLI)
		put(meta, MetaFormDecAtt, judi.FormDecAtt)
		put(meta, MetaDateDecAtt, judi.DateDecAtt)
	case domain.KindAdministrative:
		admin := doc.Meta.Spec.Admin
		rec.Chambre = admin.Formation
		put(meta, MetaTypeRec, admin.TypeRec)
		put(meta, MetaPubliRecueil, admin.PubliRecueil)
	}

	return rec, nil
}

// charsetReader decodes declared non-UTF-8 encodings and remembers why
// an unknown label was refused.
func (p *Parser) charsetReader(label string, input io.Reader) (io.Reader, error) {
	r, err := charset.NewReaderLabel(label, input)
	if err != nil {
		p.charsetErr = fmt.Errorf("charset %q: %w", label, err)
		return nil, p.charsetErr
	}
	return r, nil
}

// parseError classifies a decoder failure.
func (p *Parser) parseError(path string, err error) *domain.ParseError {
	if p.charsetErr != nil {
		return &domain.ParseError{Path: path, Reason: domain.ParseEncoding, Err: p.charsetErr}
	}
	var syntax *xml.SyntaxError
	if errors.As(err, &syntax) && strings.Contains(syntax.Msg, "UTF-8") {
		return &domain.ParseError{Path: path, Reason: domain.ParseEncoding, Err: err}
	}
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &domain.ParseError{Path: path, Reason: domain.ParseMalformed, Err: err}
}

// rootElement advances to the first start element.
func rootElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start, nil
		}
	}
}

func missing(path, element string) *domain.ParseError {
	return &domain.ParseError{
		Path:   path,
		Reason: domain.ParseMissingElement,
		Err:    fmt.Errorf("element %s not found", element),
	}
}

func put(m map[string]string, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		m[key] = v
	}
}

func nonEmpty(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
