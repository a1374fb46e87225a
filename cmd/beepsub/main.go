package main

import "github.com/forPelevin/beepsub/internal/cli"

func main() {
	cli.Main()
}
