package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/vitrine-io/vitrine/cmd/vitrine-release-server/app"
)

func main() {
	app.NewApp().Run()
}
