package main

import (
	"os"
	"time"

	appLog "pscal/internal/log"
)

func main() {
	err := newRootCmd(time.Now).Execute()
	appLog.Sync()
	if err != nil {
		os.Exit(1)
	}
}
