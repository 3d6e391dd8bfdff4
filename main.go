package main

import "chatdeck/internal/cli"

func main() {
	cli.Execute()
}
