package apath

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalid(t *testing.T) {
	for _, v := range []string{
		"",
		"//",
		"//a",
		"/a//b",
		"/a/",
		"/a//",
		"./a/b",
		"/./a/b",
		"/a/b/.",
		"/a/./b",
		"/a/b/../c",
		"../a",
		"/hello\x00",
	} {
		assert.False(t, Valid(v), "%q incorrectly marked valid", v)
	}
}

func TestValidAndOrdered(t *testing.T) {
	ordered := []string{
		"/",
		"/...a",
		"/.a",
		"/a",
		"/b",
		"/kleine Katze Fuß",
		"/~~",
		"/ñ",
		"/a/...",
		"/a/..obscure",
		"/a/.config",
		"/a/1",
		"/a/100",
		"/a/2",
		"/a/añejo",
		"/a/b/c",
		"/b/((",
		"/b/,",
		"/b/A",
		"/b/AAAA",
		"/b/a",
		"/b/b",
		"/b/c",
		"/b/a/c",
		"/b/b/c",
		"/b/b/b/z",
		"/b/b/b/{zz}",
	}
	for i, a := range ordered {
		assert.True(t, Valid(a), "%q incorrectly marked invalid", a)
		for j, b := range ordered {
			expected := 0
			if i < j {
				expected = -1
			} else if i > j {
				expected = 1
			}
			got := Compare(Apath(a), Apath(b))
			assert.Equal(t, expected, got,
				fmt.Sprintf("Compare(%q, %q)", a, b))
		}
	}
}

func TestLess(t *testing.T) {
	assert.True(t, Less("/b/zz", "/b/a/aa"))
	assert.False(t, Less("/b/a/aa", "/b/zz"))
	assert.False(t, Less("/a", "/a"))
}
