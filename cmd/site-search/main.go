package main

import "github.com/rohmanhakim/site-search/internal/cli"

func main() {
	cli.Execute()
}
