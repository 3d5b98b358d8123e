package main

import "github.com/gonzalo123/autofix/internal/cli"

func main() {
	cli.Execute()
}
