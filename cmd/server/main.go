// Package main is the entry point of the server.
package main

import "log"

func main() {
	app := Application{}
	if err := app.Setup(); err != nil {
		log.Fatalf("setup failed: %v", err)
	}
	if err := app.Run(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
