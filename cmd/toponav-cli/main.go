package main

import "toponav/cmd/toponav-cli/cmd"

func main() {
	cmd.Execute()
}
