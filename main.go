package main

import "github.com/KaramelBytes/rulescout/cmd"

func main() {
	cmd.Execute()
}
