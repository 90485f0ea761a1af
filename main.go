package main

import "github.com/fakeyudi/tabletalk/cmd"

func main() {
	cmd.Execute()
}
