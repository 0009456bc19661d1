package main

import (
	"os"

	"github.com/dshills/cadetprep/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
