// Command crawler is the politecrawl CLI entrypoint.
package main

import cmd "github.com/rsnk/politecrawl/internal/cli"

func main() {
	cmd.Execute()
}
