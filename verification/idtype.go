package verification

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// IDType is the kind of government identification presented.
type IDType string

const (
	IDTypeNationalID     IDType = "National ID"
	IDTypePassport       IDType = "Passport"
	IDTypeDriversLicense IDType = "Driver's License"
	IDTypeMilitaryID     IDType = "Military ID"
	IDTypeOtherGovID     IDType = "Other Government ID"
)

var idTypes = []IDType{
	IDTypeNationalID,
	IDTypePassport,
	IDTypeDriversLicense,
	IDTypeMilitaryID,
	IDTypeOtherGovID,
}

// IDTypes returns the accepted ID types in display order.
func IDTypes() []IDType {
	out := make([]IDType, len(idTypes))
	copy(out, idTypes)
	return out
}

// Valid reports whether t is one of the accepted ID types.
func (t IDType) Valid() bool {
	for _, known := range idTypes {
		if t == known {
			return true
		}
	}
	return false
}

// idTypeAliases maps short names, compared by idTypeKey, to ID types.
var idTypeAliases = map[string]IDType{
	"id":             IDTypeNationalID,
	"drivinglicense": IDTypeDriversLicense,
	"driverslicence": IDTypeDriversLicense,
	"drivinglicence": IDTypeDriversLicense,
	"military":       IDTypeMilitaryID,
	"other":          IDTypeOtherGovID,
	"othergovid":     IDTypeOtherGovID,
	"governmentid":   IDTypeOtherGovID,
}

// IDTypeFlagValues are the short spellings offered on the command line. Each
// one resolves through ParseIDType.
var IDTypeFlagValues = []string{"national-id", "passport", "drivers-license", "military-id", "other"}

// maxSuggestDistance bounds how far a typo may be from a known ID type
// before ParseIDType stops suggesting it.
const maxSuggestDistance = 4

// ParseIDType resolves free text (flag values, answer files) to an IDType.
// Matching ignores case, punctuation and spacing, so "drivers-license" and
// "PASSPORT" both resolve, and short aliases such as "other" are accepted.
// Unknown values produce an error that names the closest known type when one
// is near enough.
func ParseIDType(s string) (IDType, error) {
	key := idTypeKey(s)
	if key == "" {
		return "", fmt.Errorf("ID type is required")
	}
	for _, t := range idTypes {
		if idTypeKey(string(t)) == key {
			return t, nil
		}
	}
	if t, ok := idTypeAliases[key]; ok {
		return t, nil
	}

	best, bestDist := IDType(""), maxSuggestDistance+1
	for _, t := range idTypes {
		d := levenshtein.ComputeDistance(key, idTypeKey(string(t)))
		if d < bestDist {
			best, bestDist = t, d
		}
	}
	if best != "" {
		return "", fmt.Errorf("unknown ID type %q (did you mean %q?)", s, best)
	}
	return "", fmt.Errorf("unknown ID type %q", s)
}

func idTypeKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, s)
}
