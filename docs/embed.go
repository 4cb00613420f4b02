// Package docs bundles long-form Markdown documentation into the
// optiq binary.
package docs

import "embed"

// FS contains the bundled documentation pages.
//
//go:embed guide reference
var FS embed.FS
