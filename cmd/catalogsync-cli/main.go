package main

import "catalogsync/cmd/catalogsync-cli/cmd"

func main() {
	cmd.Execute()
}
