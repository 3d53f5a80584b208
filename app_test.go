package main

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/SohaAshraff/Virtual-Try-On-Integration-for-3D-Body-Mesh/mesh"
)

func writeMeshDoc(t *testing.T, dir, filename string, doc mesh.MeshDocument) string {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunFitOnce(t *testing.T) {
	dir := t.TempDir()
	app := NewApp()
	app.ApplyOptions(AppOptions{
		BodyFile:    writeMeshDoc(t, dir, "body.json", cubeDoc("body", 0, 0, 0, 0.5)),
		GarmentFile: writeMeshDoc(t, dir, "shirt.json", cubeDoc("shirt", 10, 10, 10, 0.05)),
		Gender:      "unisex",
		OutputFile:  filepath.Join(dir, "fitted.json"),
	})

	if err := app.RunFitOnce(); err != nil {
		t.Fatalf("RunFitOnce() error: %v", err)
	}

	fitted, err := mesh.ParseMeshFile(app.OutputFile)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	box, err := fitted.BoundingBox()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(box.Diagonal()-math.Sqrt(3)) > 1e-6 {
		t.Errorf("fitted diagonal = %g, want %g", box.Diagonal(), math.Sqrt(3))
	}

	event := app.LastEvent()
	if event == nil {
		t.Fatal("LastEvent() = nil")
	}
	if event.Garment != "shirt" || !event.Converged {
		t.Errorf("event = %+v", event)
	}
}

func TestRunFitOnce_MissingFlags(t *testing.T) {
	app := NewApp()
	if err := app.RunFitOnce(); err == nil {
		t.Error("expected error without -body and -garment")
	}
}

func TestRunFitOnce_MissingFile(t *testing.T) {
	dir := t.TempDir()
	app := NewApp()
	app.ApplyOptions(AppOptions{
		BodyFile:    filepath.Join(dir, "absent.json"),
		GarmentFile: filepath.Join(dir, "absent.json"),
		OutputFile:  filepath.Join(dir, "out.json"),
	})
	if err := app.RunFitOnce(); err == nil {
		t.Error("expected error for missing mesh files")
	}
}

func TestLoadConfiguration(t *testing.T) {
	app := NewApp()
	if err := app.LoadConfiguration(); err != nil {
		t.Fatalf("LoadConfiguration() without file: %v", err)
	}
	if app.Config == nil {
		t.Fatal("Config = nil")
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "fitting:\n  maxIterations: 42\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	app.ConfigFile = path
	if err := app.LoadConfiguration(); err != nil {
		t.Fatalf("LoadConfiguration() error: %v", err)
	}
	if app.Config.Fitting.MaxIterations != 42 {
		t.Errorf("MaxIterations = %d, want 42", app.Config.Fitting.MaxIterations)
	}

	app.ConfigFile = filepath.Join(t.TempDir(), "absent.yaml")
	if err := app.LoadConfiguration(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestHandleRequest_DefaultsGenderAndPublishes(t *testing.T) {
	app := NewApp()
	client := mesh.NewMockClient()
	app.Publisher = mesh.NewPublisher(client, nil)

	req := &mesh.FitRequest{
		Body:    cubeDoc("body", 0, 0, 0, 0.5),
		Garment: cubeDoc("shirt", 10, 10, 10, 0.05),
	}
	result, err := app.handleRequest(req)
	if err != nil {
		t.Fatalf("handleRequest() error: %v", err)
	}
	if result.Gender != mesh.GenderUnisex {
		t.Errorf("Gender = %q, want unisex default", result.Gender)
	}

	messages := client.GetPublishedMessages()
	if len(messages) != 2 {
		t.Fatalf("published %d messages, want 2", len(messages))
	}
	if messages[0].Topic != "tryon/results" || messages[1].Topic != "tryon/fitted/shirt" {
		t.Errorf("topics = %q, %q", messages[0].Topic, messages[1].Topic)
	}
}

func TestHandleRequest_InvalidBody(t *testing.T) {
	app := NewApp()
	req := &mesh.FitRequest{
		Body:    mesh.MeshDocument{Name: "empty"},
		Garment: cubeDoc("shirt", 0, 0, 0, 0.05),
	}
	if _, err := app.handleRequest(req); err == nil {
		t.Error("expected error for empty body mesh")
	}
}
