// Package assets embeds the dashboard's static files.
package assets

import "embed"

//go:embed static
var staticFS embed.FS

// StaticFS returns the embedded static directory.
func StaticFS() embed.FS {
	return staticFS
}
