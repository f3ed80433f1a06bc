package main

import "github.com/KaramelBytes/erpgenie-cli/cmd"

func main() {
	cmd.Execute()
}
