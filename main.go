package main

import "github.com/kozaktomas/facewall/cmd"

func main() {
	cmd.Execute()
}
