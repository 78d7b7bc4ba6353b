package main

import (
	"embed"
	"errors"
	"log"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/edgejitter/pkg/config"
	"github.com/chazu/edgejitter/pkg/engine"
)

//go:embed all:frontend/dist
var assets embed.FS

// configFile is read from the working directory when present.
const configFile = "jitter.toml"

// loadConfig reads path, falling back to the defaults when it does not exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return config.Load(path)
}

func main() {
	cfg, err := loadConfig(configFile)
	if err != nil {
		log.Fatal(err)
	}
	app := NewApp(
		engine.WithSettings(engine.SettingsFromConfig(cfg)),
		engine.WithLogger(cfg.Logger(os.Stderr)),
	)

	err = wails.Run(&options.App{
		Title:  "Edge Jitter",
		Width:  1200,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup: app.startup,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
