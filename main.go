package main

import (
	"flag"
	"fmt"
	"log"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	configFile  = flag.String("config", "", "Path to YAML configuration file (optional)")
	bodyFile    = flag.String("body", "", "Body mesh document (JSON)")
	garmentFile = flag.String("garment", "", "Garment mesh document (JSON)")
	genderFlag  = flag.String("gender", "unisex", "Gender tag for scale coefficients: male, female, or unisex")
	outputFile  = flag.String("output", "fitted-garment.json", "Output file for the fitted garment mesh")
	httpMode    = flag.Bool("http", false, "Enable HTTP server for fitting requests")
	httpPort    = flag.Int("http-port", 8080, "HTTP server port (default 8080)")
	mqttMode    = flag.Bool("mqtt", false, "Run MQTT service mode for fitting requests")
)

func main() {
	flag.Parse()
	fmt.Printf("tryon version: %s\n", Version)

	app := NewApp()
	app.ApplyOptions(AppOptions{
		ConfigFile:  *configFile,
		BodyFile:    *bodyFile,
		GarmentFile: *garmentFile,
		Gender:      *genderFlag,
		OutputFile:  *outputFile,
		HttpPort:    *httpPort,
		HttpMode:    *httpMode,
		MqttMode:    *mqttMode,
	})

	if err := app.LoadConfiguration(); err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if app.HttpMode || app.MqttMode {
		if err := app.RunServe(); err != nil {
			log.Fatalf("Service error: %v", err)
		}
		return
	}

	if err := app.RunFitOnce(); err != nil {
		log.Fatalf("Fitting error: %v", err)
	}
}
