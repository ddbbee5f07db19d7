package main

import "github.com/alechenninger/membergate/internal/cli"

func main() {
	cli.Execute()
}
