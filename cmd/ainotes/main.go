package main

import "github.com/ainotes-dev/ainotes/internal/cli"

func main() {
	cli.Execute()
}
