package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTag_IsVersionTag(t *testing.T) {
	versions := []string{"v1.2.3", "1.0", "2", "v3.1.4-beta", "v10.20.30"}
	for _, name := range versions {
		assert.True(t, NewTag(1, name, "sha", "").IsVersionTag(), "%q should be a version tag", name)
	}

	others := []string{"latest", "release-candidate", "v1.2.3.abc!", "nightly-2024", ""}
	for _, name := range others {
		assert.False(t, NewTag(1, name, "sha", "").IsVersionTag(), "%q should not be a version tag", name)
	}
}
