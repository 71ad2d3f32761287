package syncer

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesAnyIsPrefixMatch(t *testing.T) {
	patterns := []*regexp.Regexp{regexp.MustCompile(`foo-.*`)}
	assert.True(t, matchesAny(patterns, "foo-service"))
	assert.False(t, matchesAny(patterns, "my-foo-service"))
}

func TestCompileExcludesSkipsInvalid(t *testing.T) {
	compiled := compileExcludes([]string{"(", "valid-.*"})
	assert.Len(t, compiled, 1)
}
