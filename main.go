package main

import (
	"embed"
	"fmt"
	"log"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"gorm.io/gorm/logger"

	"glance/internal/config"
	"glance/internal/database"
	"glance/internal/llm"
	"glance/internal/repositories"
	"glance/internal/utils"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	// Development installs keep provider keys in a .env file.
	if err := utils.LoadEnv(); err != nil {
		log.Printf("no .env loaded: %v", err)
	}

	configPath, err := config.DefaultPath()
	if err != nil {
		fmt.Println("Error resolving config path:", err)
		return
	}
	store := config.NewStore(configPath, nil)

	db, err := database.Init(database.Config{
		LogLevel: logger.Warn,
	})
	if err != nil {
		fmt.Println("Error opening database:", err)
		return
	}

	cache := llm.NewModelCache(repositories.NewModelCacheRepository(db))
	cache.PurgeStale()
	gateway := llm.NewGateway(cache)

	app := NewApp(store, gateway)
	if sqlDB, err := db.DB(); err == nil {
		app.dbClose = sqlDB.Close
	}

	// The single window is the popup itself: frameless, floating, hidden
	// until a hotkey fires.
	err = wails.Run(&options.App{
		Title:         "Glance",
		Width:         420,
		Height:        280,
		Frameless:     true,
		AlwaysOnTop:   true,
		StartHidden:   true,
		DisableResize: true,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Linux: &linux.Options{
			WindowIsTranslucent: true,
			WebviewGpuPolicy:    linux.WebviewGpuPolicyAlways,
			ProgramName:         "Glance",
		},
		BackgroundColour: &options.RGBA{R: 0, G: 0, B: 0, A: 0},
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		Bind: []interface{}{
			app,
		},
	})

	if err != nil {
		println("Error:", err.Error())
	}
}
