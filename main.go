package main

import (
	"os"

	"github.com/dposnet/dposd/app"
)

func main() {
	if err := app.StartApp(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
