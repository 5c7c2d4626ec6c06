package main

import "easyplan-sync.com/easyplan-sync/cmd"

func main() {
	cmd.Execute()
}
