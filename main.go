package main

import "training-load/internal/cli"

func main() {
	cli.Execute()
}
