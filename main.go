package main

import "push-relay/cmd"

func main() {
	cmd.Execute()
}
