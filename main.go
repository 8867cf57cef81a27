package main

import (
	"deezer-search-widget/pkg/api"
	"deezer-search-widget/pkg/config"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Could not load configuration")
	}
	cfg.ConfigureLogging()

	if err := api.ListenAndServe(cfg); err != nil {
		logrus.WithError(err).Fatal("Could not serve API")
	}
}
