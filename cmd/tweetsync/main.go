// Command tweetsync syncs a Twitter timeline into a local SQLite database
// and reports reply statistics.
package main

import "github.com/mesh-intelligence/tweetsync/internal/cli"

func main() {
	cli.Execute()
}
