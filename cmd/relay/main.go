package main

import "github.com/adamwoolhether/relay/internal/cli"

func main() {
	cli.Execute()
}
