// Package web embeds the page templates, static assets and site copy.
package web

import "embed"

//go:embed templates content static
var FS embed.FS
