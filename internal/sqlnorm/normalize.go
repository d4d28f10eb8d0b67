// Package sqlnorm reduces a raw slow-log SQL statement to a canonical
// form that is stable across parameter values, and derives a 128-bit
// fingerprint from it.
package sqlnorm

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
)

// The transformations below run in this exact order. Ordering is load
// bearing: versioned hints must be stripped before the generic block
// comment pattern would otherwise eat their internals, and hints must
// be gone before the plain "/* ... */" pattern runs at all.
var (
	reHintVersioned = regexp.MustCompile(`(?s)/\*![0-9]{5}.*?\*/`)
	reHintSimple    = regexp.MustCompile(`(?s)/\*!.*?\*/`)
	reHintExecutor  = regexp.MustCompile(`(?s)/\*\+.*?\*/`)
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment   = regexp.MustCompile(`(?m)--[^\n]*`)
	reInList        = regexp.MustCompile(`(?i)\bIN\s*\((?:[^()]*|\([^()]*\))*\)`)
	reString        = regexp.MustCompile(`(?s)'([^'\\]|\\.)*'|"([^"\\]|\\.)*"`)
	reNumeric       = regexp.MustCompile(`\b\d+(\.\d+)?\b`)
	reWhitespace    = regexp.MustCompile(`\s+`)

	reMainTableFrom   = regexp.MustCompile("(?i)\\bfrom\\s+([`\"\\w.-]+)")
	reMainTableUpdate = regexp.MustCompile("(?i)\\bupdate\\s+([`\"\\w.-]+)")
	reMainTableInto   = regexp.MustCompile("(?i)\\binto\\s+([`\"\\w.-]+)")
)

// Normalize canonicalizes raw SQL text into a lowercase, whitespace
// collapsed form with comments, MySQL hints and literals redacted. The
// result is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(sql string) string {
	s := strings.TrimSpace(sql)

	s = reHintVersioned.ReplaceAllString(s, " ")
	s = reHintSimple.ReplaceAllString(s, " ")
	s = reHintExecutor.ReplaceAllString(s, " ")
	s = reBlockComment.ReplaceAllString(s, " ")
	s = reLineComment.ReplaceAllString(s, " ")

	s = reInList.ReplaceAllString(s, " IN (?) ")
	s = reString.ReplaceAllString(s, "?")
	s = reNumeric.ReplaceAllString(s, "?")

	s = reWhitespace.ReplaceAllString(s, " ")
	s = strings.TrimSuffix(strings.TrimSpace(s), ";")
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)

	return s
}

// Fingerprint returns the 32-character lowercase hex MD5 digest of the
// normalized form's UTF-8 bytes. Equal fingerprints imply equal
// normalized SQL and vice versa; MD5 is used for its compactness, not
// for any cryptographic property.
func Fingerprint(sql string) string {
	sum := md5.Sum([]byte(Normalize(sql)))
	return hex.EncodeToString(sum[:])
}

// MainTable makes a best-effort extraction of the first table name
// referenced by raw (un-normalized) SQL: the first "FROM <ident>", or
// failing that "UPDATE <ident>", or failing that "INTO <ident>".
// Returns ("", false) when none of the three patterns match.
func MainTable(sql string) (string, bool) {
	for _, re := range []*regexp.Regexp{reMainTableFrom, reMainTableUpdate, reMainTableInto} {
		if m := re.FindStringSubmatch(sql); m != nil {
			return strings.Trim(m[1], "`\""), true
		}
	}
	return "", false
}
