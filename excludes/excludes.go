// Package excludes matches rsync style glob patterns against apaths,
// for leaving things out of backups and restores.
//
// A pattern starting with "/" is anchored at the top of the backup
// tree, otherwise it matches at any directory level.  "*" matches
// within a path segment, "**" across segments, "?" a single character,
// and "{a,b}" alternatives.
package excludes

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/durabackup/dura/archive/apath"
)

// Set is a compiled set of exclusion patterns.
//
// A nil *Set matches nothing, so an empty exclusion list needs no
// special casing.
type Set struct {
	res []*regexp.Regexp
}

// New compiles glob patterns into a Set.
func New(globs []string) (*Set, error) {
	if len(globs) == 0 {
		return nil, nil
	}
	set := &Set{}
	for _, glob := range globs {
		re, err := globToRegexp(glob)
		if err != nil {
			return nil, err
		}
		set.res = append(set.res, re)
	}
	return set, nil
}

// Match reports whether the apath is excluded.
func (s *Set) Match(ap apath.Apath) bool {
	if s == nil {
		return false
	}
	// Patterns are written relative to the tree root without the
	// apath's leading slash.
	rel := strings.TrimPrefix(string(ap), "/")
	for _, re := range s.res {
		if re.MatchString(rel) {
			return true
		}
	}
	return false
}

// globToRegexp converts an rsync style glob to a regexp
func globToRegexp(glob string) (*regexp.Regexp, error) {
	var re bytes.Buffer
	if strings.HasPrefix(glob, "/") {
		glob = glob[1:]
		_, _ = re.WriteRune('^')
	} else {
		_, _ = re.WriteString("(^|/)")
	}
	consecutiveStars := 0
	insertStars := func() error {
		if consecutiveStars > 0 {
			switch consecutiveStars {
			case 1:
				_, _ = re.WriteString(`[^/]*`)
			case 2:
				_, _ = re.WriteString(`.*`)
			default:
				return errors.Errorf("too many stars in %q", glob)
			}
		}
		consecutiveStars = 0
		return nil
	}
	inBraces := false
	inBrackets := 0
	slashed := false
	for _, c := range glob {
		if slashed {
			_, _ = re.WriteRune(c)
			slashed = false
			continue
		}
		if c != '*' {
			err := insertStars()
			if err != nil {
				return nil, err
			}
		}
		if inBrackets > 0 {
			_, _ = re.WriteRune(c)
			if c == '[' {
				inBrackets++
			}
			if c == ']' {
				inBrackets--
			}
			continue
		}
		switch c {
		case '\\':
			_, _ = re.WriteRune(c)
			slashed = true
		case '*':
			consecutiveStars++
		case '?':
			_, _ = re.WriteString(`[^/]`)
		case '[':
			_, _ = re.WriteRune(c)
			inBrackets++
		case ']':
			return nil, errors.Errorf("mismatched ']' in glob %q", glob)
		case '{':
			if inBraces {
				return nil, errors.Errorf("can't nest '{' '}' in glob %q", glob)
			}
			inBraces = true
			_, _ = re.WriteRune('(')
		case '}':
			if !inBraces {
				return nil, errors.Errorf("mismatched '{' and '}' in glob %q", glob)
			}
			_, _ = re.WriteRune(')')
			inBraces = false
		case ',':
			if inBraces {
				_, _ = re.WriteRune('|')
			} else {
				_, _ = re.WriteRune(c)
			}
		case '.', '+', '(', ')', '|', '^', '$': // regexp meta characters not dealt with above
			_, _ = re.WriteRune('\\')
			_, _ = re.WriteRune(c)
		default:
			_, _ = re.WriteRune(c)
		}
	}
	err := insertStars()
	if err != nil {
		return nil, err
	}
	if inBrackets > 0 {
		return nil, errors.Errorf("mismatched '[' and ']' in glob %q", glob)
	}
	if inBraces {
		return nil, errors.Errorf("mismatched '{' and '}' in glob %q", glob)
	}
	_, _ = re.WriteRune('$')
	result, err := regexp.Compile(re.String())
	if err != nil {
		return nil, errors.Wrapf(err, "bad glob pattern %q (%q)", glob, re.String())
	}
	return result, nil
}
