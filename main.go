package main

import (
	"github.com/eernst/rarefy/cmd"
)

func main() {
	cmd.Execute()
}
