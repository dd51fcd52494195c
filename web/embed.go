package web

import "embed"

// Templates embeds the HTML document templates.
//
//go:embed templates/**/*.html
var Templates embed.FS
