package main

import "github.com/chriserin/ftrun/cmd"

func main() {
	cmd.Execute()
}
