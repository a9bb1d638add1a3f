package main

import "github.com/agentic-research/jarjar/cmd"

func main() {
	cmd.Execute()
}
