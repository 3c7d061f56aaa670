package main

import (
	"os"

	"github.com/csvjira/csvjira/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
