package main

import "aura-finance/internal/adapters/cli"

func main() {
	cli.Execute()
}
