package main

import (
	"context"
	"embed"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/MJE43/everything-launcher/bindings"
	"github.com/MJE43/everything-launcher/internal/applog"
	"github.com/MJE43/everything-launcher/internal/catalog"
	"github.com/MJE43/everything-launcher/internal/config"
)

//go:embed all:frontend/dist
var assets embed.FS

const (
	appTitle = "The Everything Launcher"
	repoURL  = "https://github.com/MJE43/everything-launcher"
)

var (
	appCtx   context.Context
	appCtxMu sync.RWMutex
)

func buildWindowsOptions() *windows.Options {
	return &windows.Options{
		Theme: windows.SystemDefault,
		CustomTheme: &windows.ThemeSettings{
			DarkModeTitleBar:   windows.RGB(26, 27, 30),
			DarkModeTitleText:  windows.RGB(193, 194, 197),
			DarkModeBorder:     windows.RGB(44, 46, 51),
			LightModeTitleBar:  windows.RGB(248, 249, 250),
			LightModeTitleText: windows.RGB(33, 37, 41),
			LightModeBorder:    windows.RGB(222, 226, 230),
		},
		WebviewIsTransparent: false,
		WindowIsTranslucent:  false,
		IsZoomControlEnabled: false,
		ZoomFactor:           1.0,
		WindowClassName:      "EverythingLauncherWindow",
		OnSuspend: func() {
			log.Debug().Msg("windows entering low power mode")
		},
		OnResume: func() {
			log.Debug().Msg("windows resuming from low power mode")
		},
	}
}

func buildMacOptions() *mac.Options {
	return &mac.Options{
		TitleBar: mac.TitleBarDefault(),
		About: &mac.AboutInfo{
			Title:   appTitle,
			Message: "Apps, Folders, and Components.\n\nBuilt with Wails " + bindings.Version,
		},
	}
}

func buildLinuxOptions() *linux.Options {
	return &linux.Options{
		WebviewGpuPolicy: linux.WebviewGpuPolicyOnDemand,
		ProgramName:      "everything-launcher",
	}
}

func main() {
	cfg, err := config.Load(nil)
	if err != nil {
		applog.Setup(os.Stderr, false)
		log.Fatal().Err(err).Msg("load config")
	}
	zl := applog.Setup(os.Stderr, cfg.Debug)
	zl.Info().Str("go", runtime.Version()).Str("data_dir", cfg.DataDir).Msg("starting " + appTitle)

	app, mods, err := bindings.New(cfg, zl)
	if err != nil {
		zl.Fatal().Err(err).Msg("init bindings")
	}

	startup := func(ctx context.Context) {
		setAppContext(ctx)
		app.Startup(ctx)
	}

	beforeClose := func(ctx context.Context) (prevent bool) {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = app.Shutdown(shutdownCtx)
		setAppContext(nil)
		zl.Info().Msg("application is closing")
		return false
	}

	if err := wails.Run(&options.App{
		Title:            appTitle,
		Width:            1000,
		Height:           700,
		MinWidth:         640,
		MinHeight:        480,
		WindowStartState: options.Normal,
		BackgroundColour: &options.RGBA{R: 26, G: 27, B: 30, A: 255},

		AssetServer: &assetserver.Options{
			Assets: assets,
		},

		OnStartup:     startup,
		OnBeforeClose: beforeClose,
		OnShutdown: func(ctx context.Context) {
			zl.Info().Msg("application shutdown complete")
		},

		Menu: buildAppMenu(cfg.DataDir),

		Bind: []interface{}{app, mods.Shuffle, mods.Launcher, mods.Live},

		Logger:             applog.NewWailsLogger(zl),
		LogLevel:           logger.INFO,
		LogLevelProduction: logger.ERROR,

		EnableDefaultContextMenu: false,

		ErrorFormatter: func(err error) any {
			if err == nil {
				return nil
			}
			return err.Error()
		},

		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId: "5b0f2c9e-everything-launcher",
			OnSecondInstanceLaunch: func(data options.SecondInstanceData) {
				zl.Info().Strs("args", data.Args).Msg("second instance launch prevented")
				withAppContext(func(ctx context.Context) {
					wruntime.WindowUnminimise(ctx)
					wruntime.Show(ctx)
				})
			},
		},

		DragAndDrop: &options.DragAndDrop{
			EnableFileDrop:     false,
			DisableWebViewDrop: true,
		},

		Windows: buildWindowsOptions(),
		Mac:     buildMacOptions(),
		Linux:   buildLinuxOptions(),
	}); err != nil {
		zl.Fatal().Err(err).Msg("wails run")
	}
}

func buildAppMenu(dataDir string) *menu.Menu {
	rootMenu := menu.NewMenu()

	if runtime.GOOS == "darwin" {
		if appMenu := menu.AppMenu(); appMenu != nil {
			rootMenu.Append(appMenu)
		}
	}

	fileMenu := menu.NewMenu()
	fileMenu.AddText("Open Data Directory", keys.CmdOrCtrl("o"), func(_ *menu.CallbackData) {
		withAppContext(func(ctx context.Context) {
			u, err := catalog.LaunchURL(catalog.Item{Target: dataDir})
			if err != nil {
				log.Warn().Err(err).Msg("resolve data dir")
				return
			}
			wruntime.BrowserOpenURL(ctx, u)
		})
	})
	fileMenu.AddSeparator()
	fileMenu.AddText("Quit", keys.CmdOrCtrl("q"), func(_ *menu.CallbackData) {
		withAppContext(func(ctx context.Context) {
			wruntime.Quit(ctx)
		})
	})
	rootMenu.Append(menu.SubMenu("File", fileMenu))

	viewMenu := menu.NewMenu()
	viewMenu.AddText("Reload Frontend", keys.CmdOrCtrl("r"), func(_ *menu.CallbackData) {
		withAppContext(func(ctx context.Context) {
			wruntime.WindowReloadApp(ctx)
		})
	})
	viewMenu.AddText("Toggle Fullscreen", keys.Combo("f", keys.CmdOrCtrlKey, keys.ShiftKey), func(_ *menu.CallbackData) {
		withAppContext(toggleFullscreen)
	})
	rootMenu.Append(menu.SubMenu("View", viewMenu))

	helpMenu := menu.NewMenu()
	helpMenu.AddText("Project Repository", nil, func(_ *menu.CallbackData) {
		withAppContext(func(ctx context.Context) {
			wruntime.BrowserOpenURL(ctx, repoURL)
		})
	})
	rootMenu.Append(menu.SubMenu("Help", helpMenu))

	return rootMenu
}

func toggleFullscreen(ctx context.Context) {
	if wruntime.WindowIsFullscreen(ctx) {
		wruntime.WindowUnfullscreen(ctx)
		return
	}
	wruntime.WindowFullscreen(ctx)
}

func setAppContext(ctx context.Context) {
	appCtxMu.Lock()
	defer appCtxMu.Unlock()
	appCtx = ctx
}

func withAppContext(action func(context.Context)) {
	appCtxMu.RLock()
	ctx := appCtx
	appCtxMu.RUnlock()
	if ctx == nil {
		log.Debug().Msg("application context not initialised; ignoring menu action")
		return
	}
	action(ctx)
}
