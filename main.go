package main

import "example.com/HassBackup/cmd"

func main() {
	cmd.Execute()
}
