package main

import "github.com/nsrz/intranet/internal/cli"

func main() {
	cli.Execute()
}
