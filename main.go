package main

import "github.com/Borgerr/blogthing/cmd"

func main() {
	cmd.Execute()
}
