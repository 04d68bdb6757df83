package main

import (
	"os"

	"github.com/voyago/trip-planner/tripservice"
)

func main() {
	if err := tripservice.Run(); err != nil {
		os.Exit(1)
	}
}
