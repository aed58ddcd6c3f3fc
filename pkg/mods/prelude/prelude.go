// Package prelude carries the Orchid source of the embedded prelude module.
// The pipeline wildcard-imports it into every file unless the embedder
// disables it.
package prelude

import _ "embed"

//go:embed prelude.orc
var source string

// Source returns the prelude module source.
func Source() string { return source }

// ModuleName is the module path segment the prelude is mounted at.
const ModuleName = "prelude"
