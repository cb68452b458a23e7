package main

import "github.com/oshokin/people-detector/cmd/detector-server/cmd"

func main() {
	cmd.Execute()
}
