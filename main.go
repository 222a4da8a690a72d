// Command grafo-query serves a versioned code-graph query engine and tool
// gateway over REST and an MCP-style SSE transport.
package main

import (
	"log"

	"github.com/evalgo-org/grafo-query/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
