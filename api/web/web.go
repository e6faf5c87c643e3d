// Package web embeds the dashboard's single-page UI.
package web

import _ "embed"

//go:embed index.html
var IndexHTML []byte
