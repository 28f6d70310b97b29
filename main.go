package main

import (
	"github.com/usageflow/screensync/cmd"
)

func main() {
	cmd.Execute()
}
