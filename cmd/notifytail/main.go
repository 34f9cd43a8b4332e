package main

import (
	"fmt"
	"os"

	"github.com/dmitrymomot/notifystream/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "notifytail:", err)
		os.Exit(1)
	}
}
