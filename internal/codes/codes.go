// Package codes canonicalizes shipment identifiers and expands the combined
// shorthand used on invoice lines.
//
// Identifiers follow a hyphenated structure such as HVDC-ADOPT-HE-0325-1:
// project, program, vendor, a four-digit numeric segment, and an optional sub
// identifier. Invoice lines frequently join several identifiers into one cell
// as comma shorthand ("HVDC-ADOPT-HE-0087,90" denotes both -0087 and -0090);
// Expand turns such shorthand into the full identifier set.
package codes

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// PartCount is the number of structural parts in a full identifier.
const PartCount = 5

var (
	nonCodeRunes    = regexp.MustCompile(`[^a-zA-Z0-9_\-]`)
	repeatedHyphens = regexp.MustCompile(`-+`)
	// The numeric segment is the first all-digit block, with anything after
	// it treated as the sub identifier ("X-0325-1" has numeric segment 0325
	// and sub -1).
	numericSegment = regexp.MustCompile(`^(.*?-)(\d+)(-[A-Za-z0-9]+)?$`)
	trailingNumber = regexp.MustCompile(`(\d+)$`)
)

// Normalize canonicalizes an identifier: trims whitespace, uppercases, strips
// characters outside alphanumerics and hyphens, and collapses repeated
// hyphens.
func Normalize(id string) string {
	normalized := strings.ToUpper(strings.TrimSpace(id))
	normalized = nonCodeRunes.ReplaceAllString(normalized, "")
	normalized = repeatedHyphens.ReplaceAllString(normalized, "-")
	return normalized
}

// Split decomposes a canonical identifier into its five structural parts.
// Missing parts are empty strings.
func Split(code string) [5]string {
	var parts [5]string

	normalized := Normalize(code)
	i := 0
	for _, p := range strings.Split(normalized, "-") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if i >= PartCount {
			break
		}
		parts[i] = p
		i++
	}

	return parts
}

// NumericTail extracts the unpadded trailing number of an identifier
// ("...-0014" yields "14"). The identifier is returned unchanged when it has
// no trailing number. Used for diagnostic output only.
func NumericTail(code string) string {
	m := trailingNumber.FindStringSubmatch(Normalize(code))
	if m == nil {
		return code
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return code
	}
	return strconv.Itoa(n)
}

// tokenKind discriminates the shorthand token variants.
type tokenKind int

const (
	// tokenFull is a complete identifier passed through verbatim.
	tokenFull tokenKind = iota
	// tokenNumeric is a bare number substituted into the base's numeric
	// segment ("90" against base ...-0087 denotes ...-0090).
	tokenNumeric
	// tokenNumericSub is a number with a sub suffix replacing both the
	// numeric segment and the sub identifier ("0325-2").
	tokenNumericSub
)

// token is one comma-delimited element of a shorthand identifier.
type token struct {
	kind   tokenKind
	digits string
	suffix string
	text   string
}

// lex classifies one shorthand token. The classification is purely lexical:
// digits, digits-with-suffix, or anything else.
func lex(raw string) token {
	if i := strings.Index(raw, "-"); i > 0 {
		digits, suffix := raw[:i], raw[i+1:]
		if isDigits(digits) && suffix != "" {
			return token{kind: tokenNumericSub, digits: digits, suffix: suffix}
		}
	}

	if isDigits(raw) {
		return token{kind: tokenNumeric, digits: raw}
	}

	return token{kind: tokenFull, text: raw}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// base describes the first shorthand token, against which later tokens
// substitute.
type base struct {
	prefix string // up to and including the hyphen before the numeric segment
	num    string
	sub    string // includes leading hyphen when present
}

// parseBase splits the base identifier around its numeric segment. The
// boolean result is false when no numeric segment exists.
func parseBase(code string) (base, bool) {
	m := numericSegment.FindStringSubmatch(code)
	if m == nil {
		return base{}, false
	}
	return base{prefix: m[1], num: m[2], sub: m[3]}, true
}

// pad4 zero-pads a digit string to four characters.
func pad4(digits string) string {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return digits
	}
	return fmt.Sprintf("%04d", n)
}

// Expand turns a raw identifier, possibly comma-joined shorthand, into the
// sorted set of canonical identifiers it denotes.
//
// The first comma-delimited token is the full base identifier. Subsequent
// tokens substitute against it: bare numbers replace the base's numeric
// segment (zero-padded to four digits, the base's sub identifier retained),
// number-with-suffix tokens replace both the numeric segment and the sub
// identifier, and anything else passes through verbatim. A base with no
// numeric segment is a degraded but non-fatal input: only the base itself is
// returned.
func Expand(raw string) []string {
	// Commas are shorthand structure, so split before normalizing: Normalize
	// strips them.
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if cleaned == "" {
		return nil
	}

	parts := strings.Split(cleaned, ",")
	baseCode := Normalize(parts[0])
	if baseCode == "" {
		return nil
	}

	set := map[string]struct{}{baseCode: {}}

	b, ok := parseBase(baseCode)
	if ok {
		for _, rawToken := range parts[1:] {
			t := lex(Normalize(rawToken))
			switch t.kind {
			case tokenNumeric:
				set[b.prefix+pad4(t.digits)+b.sub] = struct{}{}
			case tokenNumericSub:
				set[b.prefix+pad4(t.digits)+"-"+t.suffix] = struct{}{}
			case tokenFull:
				if t.text != "" {
					set[t.text] = struct{}{}
				}
			}
		}
	}

	expanded := make([]string, 0, len(set))
	for code := range set {
		expanded = append(expanded, code)
	}
	sort.Strings(expanded)
	return expanded
}
