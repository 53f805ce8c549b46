package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"gowheel/button"
	"gowheel/campaign"
	"gowheel/dispenser"
	"gowheel/eventpipe"
	"gowheel/indicator"
	"gowheel/metrics"
	"gowheel/mqtt"
	"gowheel/outcome"
	"gowheel/reader"
	"gowheel/rotary"
	"gowheel/video"
	"gowheel/video/screen"
	"gowheel/video/screen/screens"
	"gowheel/voucher"
)

var myBuild string

// App holds the application state and dependencies.
type App struct {
	cfg       *Config
	mqtt      *mqtt.Client
	status    statusPublisher
	topics    mqtt.Topics
	campaign  *campaign.Manager
	outcome   spinService
	reader    reader.TagReader
	dispenser dispenser.Dispenser
	printer   *voucher.Printer
	indicator indicator.Indicator
	display   *video.Display
	mgr       *screen.Manager // nil without a display
	screens   *screens.Set
	rotary    *rotary.Rotary
	button    *button.Button
	pipe      *eventpipe.EventPipe
	cron      *cron.Cron
	metrics   *http.Server
	busy      atomic.Bool // a spin is between trigger and dismissal
	awarding  atomic.Bool // a landed spin still owns the gate
	ctx       context.Context
	cancel    context.CancelFunc
}

func main() {
	fmt.Printf("gowheel build %s\n", myBuild)

	cfgfile := flag.String("cfg", "gowheel.cfg", "Config file")
	flag.Parse()

	cfg, err := loadConfig(*cfgfile)
	if err != nil {
		log.Fatalf("Config: %v", err)
	}
	if err := setupLogging(cfg.LogLevel); err != nil {
		log.Fatalf("Config: %v", err)
	}

	// Create application context
	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	// Initialize indicator (LEDs, neopixels)
	app.indicator, err = indicator.New(cfg.Indicator)
	if err != nil {
		log.Fatalf("Init indicator: %v", err)
	}
	app.indicator.ConnectionLost() // Start with connection lost state

	app.initCampaign()

	app.outcome, err = outcome.New(cfg.Outcome)
	if err != nil {
		log.Fatalf("Init outcome client: %v", err)
	}

	// Initialize display if enabled
	if cfg.VideoEnabled {
		if !video.ScreenSupported() {
			log.Fatalf("Video enabled but screen support not compiled in")
		}
		if err := app.initDisplay(); err != nil {
			log.Fatalf("Init display: %v", err)
		}
	}

	app.dispenser, err = dispenser.New(cfg.Dispenser)
	if err != nil {
		log.Fatalf("Init dispenser: %v", err)
	}
	app.printer = voucher.New(cfg.Voucher)

	// Initialize rotary encoder if configured
	app.rotary, err = rotary.New(cfg.Rotary, rotary.Handlers{
		OnTurn: func(delta int) {
			app.routeInput(screen.Event{
				Type: screen.EventRotaryTurn,
				Data: screen.RotaryData{ID: screen.RotaryMain, Delta: delta},
			}, "rotary")
		},
		OnPress: func() {
			app.routeInput(screen.Event{Type: screen.EventRotaryPress, Data: screen.RotaryData{ID: screen.RotaryMain}}, "rotary")
		},
		OnLongPress: func() {
			app.routeInput(screen.Event{Type: screen.EventRotaryLongPress, Data: screen.RotaryData{ID: screen.RotaryMain}}, "rotary")
		},
	})
	if err != nil {
		log.Fatalf("Init rotary: %v", err)
	}
	if app.rotary != nil {
		log.Printf("Rotary encoder initialized (CLK=%d, DT=%d, BTN=%d)",
			cfg.Rotary.CLKPin, cfg.Rotary.DTPin, cfg.Rotary.ButtonPin)
	}

	app.button, err = button.New(cfg.Button, func() {
		app.routeInput(screen.Event{Type: screen.EventButton}, "button")
	})
	if err != nil {
		log.Fatalf("Init button: %v", err)
	}
	app.button.SetLamp(cfg.AllowAnonymous)

	// Initialize tag reader
	app.reader, err = reader.New(cfg.Reader)
	if err != nil {
		log.Fatalf("Init reader: %v", err)
	}

	app.pipe, err = eventpipe.New(cfg.EventPipe, app.handlePipe)
	if err != nil {
		log.Fatalf("Init event pipe: %v", err)
	}

	// Initialize MQTT
	app.mqtt, err = mqtt.New(cfg.MQTT, cfg.ClientID, mqtt.Handlers{
		OnConnect:    app.onMQTTConnect,
		OnDisconnect: app.onMQTTDisconnect,
		OnMessage:    app.onMQTTMessage,
	})
	if err != nil {
		log.Fatalf("Init MQTT: %v", err)
	}
	app.status = app.mqtt
	app.topics = app.mqtt.Topics()

	if err := app.startJobs(); err != nil {
		log.Fatalf("Init scheduler: %v", err)
	}
	app.metrics = metrics.Serve(cfg.Metrics)

	// Start background goroutines
	go func() {
		if err := app.mqtt.Connect(); err != nil {
			log.Printf("MQTT connect: %v", err)
		}
	}()
	if app.reader != nil {
		go app.tagListener()
	}
	if app.pipe != nil {
		go app.pipe.Start()
	}
	go app.refreshCampaign("startup")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("Shutting down...")
	app.shutdown()
	fmt.Println("Shutdown complete")
}

func (app *App) initCampaign() {
	app.campaign = campaign.NewManager(app.cfg.Campaign, app.cfg.ClientID)
	app.campaign.SetUpdateCallback(app.onCampaignUpdate)

	// Cached segments first, the API refresh runs once MQTT is up
	if err := app.campaign.LoadFromFile(); err != nil {
		log.Printf("Campaign: could not load cache: %v", err)
	}
}

func (app *App) initDisplay() error {
	var err error
	app.display, err = video.New(app.cfg.Video)
	if err != nil {
		return err
	}
	mgr := app.display.Manager()
	set, err := screens.Register(mgr, app.cfg.Screens, app.cfg.Spin)
	if err != nil {
		return err
	}
	app.attachScreens(mgr, set)
	mgr.SwitchTo(screen.ScreenConnectionLost)
	return nil
}

func (app *App) onCampaignUpdate(snap campaign.Snapshot) {
	log.WithFields(log.Fields{
		"campaign": snap.Name,
		"version":  snap.Version,
		"segments": len(snap.Segments),
	}).Info("Campaign: updated")

	if app.mgr != nil {
		app.mgr.Broadcast(screen.Event{
			Type: screen.EventCampaignUpdated,
			Data: screen.CampaignData{Campaign: snap},
		})
	}
	if app.status != nil {
		if err := app.status.PublishJSON(app.topics.CampaignStatus(), map[string]any{
			"status":   "downloaded",
			"version":  snap.Version,
			"segments": len(snap.Segments),
		}); err != nil {
			log.Printf("MQTT: %v", err)
		}
	}
}

func (app *App) tagListener() {
	for {
		select {
		case <-app.ctx.Done():
			return
		default:
		}

		tagID, err := app.reader.Read(app.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Printf("Reader: read tag: %v", err)
			time.Sleep(time.Second)
			continue
		}

		if tagID == 0 {
			continue
		}

		log.Printf("Reader: tag %d", tagID)
		app.routeInput(screen.Event{
			Type: screen.EventRFID,
			Data: screen.RFIDData{TagID: tagID},
		}, "card")
	}
}

func (app *App) shutdown() {
	app.cancel()

	if app.cron != nil {
		<-app.cron.Stop().Done()
	}
	if app.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		app.metrics.Shutdown(ctx)
		cancel()
	}
	if app.pipe != nil {
		app.pipe.Close()
	}
	if app.mgr != nil {
		app.mgr.SwitchTo(screen.ScreenShutdown)
	}

	app.mqtt.Disconnect()
	if app.reader != nil {
		app.reader.Close()
	}
	app.dispenser.Release()
	app.indicator.Shutdown()
	app.indicator.Release()
	app.button.SetLamp(false)
	app.button.Release()
	if app.rotary != nil {
		app.rotary.Release()
	}
	if app.display != nil {
		app.display.Release()
	}
}
