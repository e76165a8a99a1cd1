package main

import (
	"github.com/tranvictor/liveview/cmd"
)

func main() {
	cmd.Execute()
}
