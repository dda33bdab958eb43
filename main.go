package main

import "github.com/oshokin/podcast-grabber/cmd"

func main() {
	cmd.Execute()
}
