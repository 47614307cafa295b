package juritext

import (
	"strings"

	"github.com/custodia-labs/cassation/internal/fold"
)

// Canonical chamber labels.
const (
	ChambreCivile1     = "chambre_civile_1"
	ChambreCivile2     = "chambre_civile_2"
	ChambreCivile3     = "chambre_civile_3"
	ChambreCommerciale = "chambre_commerciale"
	ChambreSociale     = "chambre_sociale"
	ChambreCriminelle  = "chambre_criminelle"
	ChambreMixte       = "chambre_mixte"
	AssembleePleniere  = "assemblee_pleniere"
)

// chambreAliases maps folded slugs to canonical labels. Canonical labels
// are folded slugs of themselves and need no entry.
var chambreAliases = map[string]string{
	"civ1":                    ChambreCivile1,
	"civ_1":                   ChambreCivile1,
	"civile_1":                ChambreCivile1,
	"premiere_chambre_civile": ChambreCivile1,
	"1re_chambre_civile":      ChambreCivile1,
	"1ere_chambre_civile":     ChambreCivile1,

	"civ2":                    ChambreCivile2,
	"civ_2":                   ChambreCivile2,
	"civile_2":                ChambreCivile2,
	"deuxieme_chambre_civile": ChambreCivile2,
	"2e_chambre_civile":       ChambreCivile2,
	"2eme_chambre_civile":     ChambreCivile2,

	"civ3":                     ChambreCivile3,
	"civ_3":                    ChambreCivile3,
	"civile_3":                 ChambreCivile3,
	"troisieme_chambre_civile": ChambreCivile3,
	"3e_chambre_civile":        ChambreCivile3,
	"3eme_chambre_civile":      ChambreCivile3,

	"com":                            ChambreCommerciale,
	"commerciale":                    ChambreCommerciale,
	"chambre_commerciale_financiere": ChambreCommerciale,

	"chambre_commerciale_financiere_et_economique": ChambreCommerciale,

	"soc":     ChambreSociale,
	"sociale": ChambreSociale,

	"crim":       ChambreCriminelle,
	"criminelle": ChambreCriminelle,

	"mixte":    ChambreMixte,
	"ch_mixte": ChambreMixte,

	"ap":       AssembleePleniere,
	"plen":     AssembleePleniere,
	"ass_plen": AssembleePleniere,
}

// canonicalChambres lists the fixed vocabulary.
var canonicalChambres = []string{
	ChambreCivile1,
	ChambreCivile2,
	ChambreCivile3,
	ChambreCommerciale,
	ChambreSociale,
	ChambreCriminelle,
	ChambreMixte,
	AssembleePleniere,
}

// Chambres returns the canonical chamber vocabulary.
func Chambres() []string {
	out := make([]string, len(canonicalChambres))
	copy(out, canonicalChambres)
	return out
}

// CanonicalChambre maps a source chamber label onto the fixed vocabulary.
// Lookup ignores case, accents and punctuation. Unknown labels are returned
// lower-cased with whitespace trimmed and collapsed, so the function is
// idempotent on its own output.
func CanonicalChambre(label string) string {
	label = collapseSpaces(label)
	if label == "" {
		return ""
	}

	slug := Slug(label)
	for _, c := range canonicalChambres {
		if slug == c {
			return c
		}
	}
	if c, ok := chambreAliases[slug]; ok {
		return c
	}
	return strings.ToLower(label)
}

// Slug folds s into lower-case words without diacritics joined by underscores.
func Slug(s string) string {
	return strings.Join(fold.Words(s), "_")
}
