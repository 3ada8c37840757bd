// Package schemas holds the JSON Schemas that guard every part of the agent
// envelope and every model response.
package schemas

import "embed"

// FS contains every *.schema.json file in this directory
//
//go:embed *.schema.json
var FS embed.FS
