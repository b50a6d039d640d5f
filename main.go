package main

import "github.com/KaramelBytes/attrition-cli/cmd"

func main() {
	cmd.Execute()
}
