package main

import "github.com/ghostwire/ghostbot/cmd"

func main() {
	cmd.Execute()
}
