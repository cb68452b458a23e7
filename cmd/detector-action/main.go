package main

import "github.com/oshokin/people-detector/cmd/detector-action/cmd"

func main() {
	cmd.Execute()
}
