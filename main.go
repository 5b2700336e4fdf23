package main

import (
	"os"

	"github.com/justenwalker/realmfetch/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
