package main

import "github.com/bestruirui/bestsub-release/cmd/bestsub-release/cmd"

func main() {
	cmd.Execute()
}
