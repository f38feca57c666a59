// Package apath implements archive paths.
//
// Apaths are platform independent relative paths used inside archive
// snapshots.  They always start with "/", which means the top of the
// backup tree, not the filesystem root.  They contain no empty, "." or
// ".." segments.
//
// Apaths have a total order: within a directory entries sort bytewise,
// and all the direct children of a directory sort before the contents
// of any of its subdirectories.
package apath

import (
	"strings"
)

// Apath is an archive path.
type Apath string

// Root is the apath of the top of a backup tree.
const Root Apath = "/"

// Valid reports whether s is a well formed apath.
func Valid(s string) bool {
	if !strings.HasPrefix(s, "/") {
		return false
	}
	if len(s) == 1 {
		return true
	}
	for _, part := range strings.Split(s[1:], "/") {
		if part == "" || part == "." || part == ".." || strings.ContainsRune(part, 0) {
			return false
		}
	}
	return true
}

// Compare returns -1, 0 or 1 ordering a against b.
//
// This is not simple string ordering: direct children of a directory
// come before the contents of its subdirectories, so "/b/zz" sorts
// before "/b/a/aa".
func Compare(a, b Apath) int {
	as := strings.Split(string(a), "/")
	bs := strings.Split(string(b), "/")
	i, j := 0, 0
	oa, ob := as[0], bs[0]
	for {
		aMore := i+1 < len(as)
		bMore := j+1 < len(bs)
		switch {
		// Both paths end here: eg ".../aa" < ".../zz"
		case !aMore && !bMore:
			return strings.Compare(oa, ob)
		// If one is a direct child and the other is in a
		// subdirectory, the direct child comes first: eg
		// ".../zz" < ".../aa/bb"
		case !aMore:
			return -1
		case !bMore:
			return 1
		// If parents are the same and both have children keep looking.
		case oa == ob:
			i++
			j++
			oa, ob = as[i], bs[j]
		// Both paths have more components but they differ here.
		default:
			return strings.Compare(oa, ob)
		}
	}
}

// Less reports whether a sorts before b, for use with sort.Slice.
func Less(a, b Apath) bool {
	return Compare(a, b) < 0
}
