package solution

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
)

// Scoring metrics a solution can be optimised for
const (
	ScoringBytes = "bytes"
	ScoringChars = "chars"
)

// Record is a normalized solution fetched from code.golf
type Record struct {
	Hole      string
	Lang      string
	Scoring   string // empty when the scoring suffix has been collapsed
	Code      string
	Bytes     int
	Chars     int
	Submitted time.Time
}

// Key returns the stable identity of the record
func (r Record) Key() Key {
	return Key{Hole: r.Hole, Lang: r.Lang, Scoring: r.Scoring}
}

// Key identifies a solution by hole, language and scoring
type Key struct {
	Hole    string
	Lang    string
	Scoring string
}

// Less orders keys by hole, then language, then scoring
func (k Key) Less(other Key) bool {
	if k.Hole != other.Hole {
		return k.Hole < other.Hole
	}
	if k.Lang != other.Lang {
		return k.Lang < other.Lang
	}
	return k.Scoring < other.Scoring
}

func (k Key) String() string {
	if k.Scoring == "" {
		return k.Hole + "/" + k.Lang
	}
	return k.Hole + "/" + k.Lang + "/" + k.Scoring
}

// Sort orders records by key. Records sharing a key keep their relative order.
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Key().Less(records[j].Key())
	})
}

// Structure selects how solution files are laid out in the repository
type Structure string

const (
	// LanguageHole lays files out as <lang>/<hole>[-<scoring>].<ext>
	LanguageHole Structure = "lhe"
	// HoleLanguage lays files out as <hole>/<lang>[-<scoring>].<ext>
	HoleLanguage Structure = "hle"
	// HoleSolution lays files out as <hole>/solution[-<scoring>].<ext>
	HoleSolution Structure = "hse"
	// HoleOnly lays files out as <hole>[-<scoring>].<ext>
	HoleOnly Structure = "he"
)

// DefaultStructure is used when no structure is configured
const DefaultStructure = HoleLanguage

// Structures lists every supported layout
var Structures = []Structure{LanguageHole, HoleLanguage, HoleSolution, HoleOnly}

// ParseStructure validates a layout name
func ParseStructure(s string) (Structure, error) {
	for _, valid := range Structures {
		if Structure(s) == valid {
			return valid, nil
		}
	}
	return "", fmt.Errorf("unknown file structure %q (must be one of lhe, hle, hse, he)", s)
}

// Path returns the slash-separated repository path for a key
func Path(structure Structure, k Key) (string, error) {
	for _, seg := range []string{k.Hole, k.Lang} {
		if err := ValidateSegment(seg); err != nil {
			return "", err
		}
	}
	if k.Scoring != "" {
		if err := ValidateSegment(k.Scoring); err != nil {
			return "", err
		}
	}

	suffix := ""
	if k.Scoring != "" {
		suffix = "-" + k.Scoring
	}
	ext := Extension(k.Lang)

	switch structure {
	case LanguageHole:
		return path.Join(k.Lang, k.Hole+suffix+"."+ext), nil
	case HoleLanguage:
		return path.Join(k.Hole, k.Lang+suffix+"."+ext), nil
	case HoleSolution:
		return path.Join(k.Hole, "solution"+suffix+"."+ext), nil
	case HoleOnly:
		return k.Hole + suffix + "." + ext, nil
	default:
		return "", fmt.Errorf("unknown file structure %q", structure)
	}
}

// ValidateSegment checks that a hole, language or scoring code can be used
// as a single path component
func ValidateSegment(seg string) error {
	if seg == "" {
		return fmt.Errorf("empty path segment")
	}
	if seg == "." || seg == ".." {
		return fmt.Errorf("invalid path segment %q", seg)
	}
	if strings.ContainsAny(seg, `/\`) || strings.ContainsRune(seg, 0) {
		return fmt.Errorf("path segment %q contains a separator", seg)
	}
	return nil
}
