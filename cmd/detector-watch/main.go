package main

import "github.com/oshokin/people-detector/cmd/detector-watch/cmd"

func main() {
	cmd.Execute()
}
