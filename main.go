package main

import "github.com/nextlevelbuilder/deebot/cmd"

func main() {
	cmd.Execute()
}
