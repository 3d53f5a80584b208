package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/SohaAshraff/Virtual-Try-On-Integration-for-3D-Body-Mesh/mesh"
)

// App encapsulates the application state and dependencies
type App struct {
	Config     *mesh.Config
	MQTTClient *mesh.MQTTClient
	Publisher  *mesh.Publisher

	// CLI flags (effectively dependencies)
	ConfigFile  string
	BodyFile    string
	GarmentFile string
	Gender      string
	OutputFile  string
	HttpPort    int
	HttpMode    bool
	MqttMode    bool

	mu        sync.RWMutex
	lastEvent *mesh.FittingEvent
}

// AppOptions carries parsed CLI options into the App.
type AppOptions struct {
	ConfigFile  string
	BodyFile    string
	GarmentFile string
	Gender      string
	OutputFile  string
	HttpPort    int
	HttpMode    bool
	MqttMode    bool
}

// NewApp creates a new App instance with built-in default configuration.
func NewApp() *App {
	return &App{Config: &mesh.Config{}}
}

// ApplyOptions applies CLI options to the App instance.
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.BodyFile = opts.BodyFile
	a.GarmentFile = opts.GarmentFile
	a.Gender = opts.Gender
	a.OutputFile = opts.OutputFile
	a.HttpPort = opts.HttpPort
	a.HttpMode = opts.HttpMode
	a.MqttMode = opts.MqttMode
}

// LoadConfiguration loads the YAML config file when one is set; without
// a file the built-in defaults are used.
func (a *App) LoadConfiguration() error {
	if a.ConfigFile == "" {
		a.Config = &mesh.Config{}
		return nil
	}
	config, err := mesh.LoadConfig(a.ConfigFile)
	if err != nil {
		return err
	}
	a.Config = config
	return nil
}

// RunFitOnce performs a single CLI fitting run: parse the body and
// garment documents, fit, write the fitted garment document.
func (a *App) RunFitOnce() error {
	if a.BodyFile == "" || a.GarmentFile == "" {
		return fmt.Errorf("both -body and -garment are required")
	}

	body, err := mesh.ParseMeshFile(a.BodyFile)
	if err != nil {
		return fmt.Errorf("loading body mesh: %w", err)
	}
	garment, err := mesh.ParseMeshFile(a.GarmentFile)
	if err != nil {
		return fmt.Errorf("loading garment mesh: %w", err)
	}

	log.Printf("Fitting %q (%d vertices) onto %q (%d vertices), gender=%s",
		garment.Name, len(garment.Vertices), body.Name, len(body.Vertices), a.Gender)

	result, err := a.fit(body, garment, mesh.Gender(a.Gender))
	if err != nil {
		return err
	}

	if err := mesh.WriteMeshFile(a.OutputFile, result.Garment); err != nil {
		return err
	}
	log.Printf("Wrote fitted garment to %s", a.OutputFile)
	return nil
}

// fit runs the pipeline with the config-derived parameters and records
// the outcome for the health endpoint.
func (a *App) fit(body, garment *mesh.Mesh, gender mesh.Gender) (*mesh.FitResult, error) {
	params := a.Config.FitParamsFor(gender)
	result, err := mesh.FitGarment(body, garment, params)
	if err != nil {
		return nil, err
	}

	log.Printf("ICP finished: converged=%v iterations=%d error=%g scale=%g",
		result.ICP.Converged, result.ICP.Iterations, result.ICP.Error, result.Transform.Scale)

	event := mesh.FittingEvent{
		Garment:    result.Garment.Name,
		Gender:     string(gender),
		Converged:  result.ICP.Converged,
		Iterations: result.ICP.Iterations,
		Error:      result.ICP.Error,
		Scale:      result.Transform.Scale,
		Timestamp:  time.Now().Unix(),
	}
	a.mu.Lock()
	a.lastEvent = &event
	a.mu.Unlock()

	return result, nil
}

// LastEvent returns the most recent fitting event, if any.
func (a *App) LastEvent() *mesh.FittingEvent {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastEvent
}

// handleRequest serves one fitting request from HTTP or MQTT.
func (a *App) handleRequest(req *mesh.FitRequest) (*mesh.FitResult, error) {
	body, err := req.Body.ToMesh()
	if err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	garment, err := req.Garment.ToMesh()
	if err != nil {
		return nil, fmt.Errorf("garment: %w", err)
	}

	gender := mesh.Gender(req.Gender)
	if gender == "" {
		gender = mesh.GenderUnisex
	}

	result, err := a.fit(body, garment, gender)
	if err != nil {
		return nil, err
	}

	if a.Publisher != nil {
		if err := a.Publisher.PublishResult(gender, result); err != nil {
			log.Printf("Error publishing fitting result: %v", err)
		}
	}
	return result, nil
}

// RunServe starts the configured service modes and blocks until SIGINT
// or SIGTERM.
func (a *App) RunServe() error {
	if a.MqttMode {
		client, err := mesh.InitMQTT(a.Config, func(_ []byte, req *mesh.FitRequest, err error) {
			if err != nil {
				log.Printf("Dropping MQTT fitting request: %v", err)
				return
			}
			if _, err := a.handleRequest(req); err != nil {
				log.Printf("MQTT fitting request failed: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("starting MQTT service: %w", err)
		}
		if client != nil {
			a.MQTTClient = client
			a.Publisher = mesh.NewPublisher(client.Client(), a.Config)
			defer client.Disconnect()
		}
	}

	if a.HttpMode {
		addr := fmt.Sprintf(":%d", a.HttpPort)
		server := &http.Server{Addr: addr, Handler: newHTTPServer(a)}
		go func() {
			log.Printf("HTTP server listening on %s", addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("HTTP server error: %v", err)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("Shutting down")
	return nil
}
