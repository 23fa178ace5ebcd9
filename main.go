package main

import "github.com/kasuboski/reelwatch/cmd"

func main() {
	cmd.Execute()
}
