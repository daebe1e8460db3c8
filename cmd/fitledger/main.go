package main

import "github.com/fitledger/fitledger/internal/cli"

func main() {
	cli.Execute()
}
