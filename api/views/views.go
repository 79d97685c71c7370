// Package views holds the HTML templates for the quote screens.
package views

import "embed"

//go:embed *.html layouts/*.html
var FS embed.FS

const Layout = "layouts/main"
