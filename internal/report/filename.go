package report

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"vigilance-service/internal/domain/checklist"
)

// Letters with no canonical decomposition.
var ligatures = strings.NewReplacer(
	"Œ", "OE", "œ", "oe", "Æ", "AE", "æ", "ae",
	"Ø", "O", "ø", "o", "ß", "ss",
	"Đ", "D", "đ", "d", "Ð", "D", "ð", "d",
	"Ł", "L", "ł", "l", "Þ", "Th", "þ", "th",
)

// fold strips diacritics: decompose, drop combining marks, recompose.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, ligatures.Replace(s))
	if err != nil {
		return s
	}
	return out
}

// sanitize keeps ASCII letters, digits, '-' and '_' and collapses everything else into single dashes.
func sanitize(s string) string {
	s = fold(strings.TrimSpace(s))

	var b strings.Builder
	dash := false
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// Filename is checklist-<plate>-<dd-mm-yyyy>-<HH-MM>.pdf using the record's creation time.
func Filename(c *checklist.Checklist, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	plate := sanitize(c.MotorcyclePlate)
	if plate == "" {
		plate = "sem-placa"
	}
	return "checklist-" + plate + "-" + c.CreatedAt.In(loc).Format("02-01-2006-15-04") + ".pdf"
}

// BatchFilename is checklists-<condominium>.pdf.
func BatchFilename(condominiumName string) string {
	name := sanitize(condominiumName)
	if name == "" {
		name = "condominio"
	}
	return "checklists-" + name + ".pdf"
}
