// Package scenarios holds the scenarios shipped with the binary.
package scenarios

import (
	_ "embed"

	"github.com/arnavsurve/stepcheck/pkg/core"
)

//go:embed posts.yml
var postsYAML []byte

// PostsName is the name the built-in posts scenario is reported under.
const PostsName = "posts-crud"

// PostsYAML returns the raw built-in posts scenario.
func PostsYAML() []byte {
	out := make([]byte, len(postsYAML))
	copy(out, postsYAML)
	return out
}

// Posts parses the built-in posts scenario.
func Posts() (*core.Scenario, error) {
	return core.ParseScenario(postsYAML)
}
