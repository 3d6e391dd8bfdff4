package embed

import "embed"

// DistFS contains the built SPA assets. The checked-in dist holds a
// placeholder index.html; a frontend build replaces it.
//
//go:embed all:dist
var DistFS embed.FS
