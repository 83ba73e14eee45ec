// Package scripts embeds the Risor extraction scripts.
package scripts

import "embed"

// FS holds extract/*.risor, rooted so that runtime.ExtractionScriptPath
// resolves against it.
//
//go:embed extract/*.risor
var FS embed.FS
