package main

import "llmadmin/cmd"

func main() {
	cmd.Execute()
}
