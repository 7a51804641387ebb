package main

import "martianoff/delegen/cmd/delegen/commands"

func main() {
	commands.Execute()
}
