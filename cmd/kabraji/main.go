package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		log.WithError(err).Fatal("kabraji")
	}
}
