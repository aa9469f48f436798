package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/vitrine-io/vitrine/cmd/vitrine-update-agent/app"
)

func main() {
	app.NewApp().Run()
}
