package main

import "github.com/neobotlabs/neobot/cmd"

func main() {
	cmd.Execute()
}
