package main

import "teamsbridge/cmd"

func main() {
	cmd.Execute()
}
