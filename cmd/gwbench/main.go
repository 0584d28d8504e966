package main

import (
	"os"

	"gwbench/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
