package main

import "github.com/Togather-Foundation/eventboard/cmd/server/cmd"

func main() {
	cmd.Execute()
}
