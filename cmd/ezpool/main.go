package main

import "github.com/ezpool/ezpool/internal/cli"

func main() {
	cli.Execute()
}
