// Package banner renders the startup banner of the konu commands.
package banner

import "fmt"

const art = `
  _
 | | _____  _ __  _   _
 | |/ / _ \| '_ \| | | |
 |   < (_) | | | | |_| |
 |_|\_\___/|_| |_|\__,_|
`

// Banner returns the banner text followed by the version line.
func Banner(version string) string {
	return fmt.Sprintf("%s\n  topics and sentiment in news archives  %s\n\n", art, version)
}
