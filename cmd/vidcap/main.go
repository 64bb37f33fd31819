package main

import "github.com/forPelevin/vidcap/internal/cli"

func main() {
	cli.Main()
}
