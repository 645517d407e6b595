package main

import (
	"flag"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	configuration, err := loadConfig(*configFile)
	if err != nil {
		logrus.Fatalf("Configuration error: %v", err)
	}
	db, err := openTagDatabase(configuration.Database.Path)
	if err != nil {
		logrus.Fatalf("Database error: %v", err)
	}
	defer db.close()
	store, err := newImageStore(configuration, db)
	if err != nil {
		logrus.Fatalf("Image store error: %v", err)
	}
	server, err := newTagServer(configuration, store)
	if err != nil {
		logrus.Fatalf("Server error: %v", err)
	}

	logrus.Infof("Tagging %d images from '%s'", len(store.Images()), configuration.Images.Path)
	addr := fmt.Sprintf("%s:%s", configuration.Server.Host, configuration.Server.Port)
	logrus.Infof("Listening on http://%s/ (session %s)", addr, server.session)
	logrus.Fatal(http.ListenAndServe(addr, server.routes()))
}
