// Package defaults provides embedded copies of the example config and
// workspace files for use by the init subcommand.
package defaults

import _ "embed"

// ConfigYAML is the example configuration file.
//
//go:embed config.example.yaml
var ConfigYAML []byte

// MemoTXT is a sample credit memo for the workspace, so read_file has
// something to exercise out of the box.
//
//go:embed memo.example.txt
var MemoTXT []byte
