package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixge/fgprof"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"scarecam/audio"
	"scarecam/config"
	"scarecam/eventlog"
	"scarecam/notify"
	"scarecam/scare"
	"scarecam/serve"
	"scarecam/video/sink"
	"scarecam/video/source"
)

const eventRetention = 30 * 24 * time.Hour

var (
	configPath = flag.String("config", "config.json", "Path to the JSON config file.")
	window     = flag.Bool("window", false, "Show a local preview window.")
	staticDir  = flag.String("static", "static", "Directory with the web frontend.")
)

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	settings := config.NewSettings(config.Default())
	if err := config.Load(ctx, *configPath, settings); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.Get()

	events, err := eventlog.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open event log: %v", err)
	}
	go events.PruneLoop(ctx, eventRetention)

	sounds := audio.NewDispatcher(cfg.SoundsDir)

	src, err := source.OpenVideoCapture(cfg.CameraURI, cfg.FrameWidth, cfg.FrameHeight, cfg.FrameRate)
	if err != nil {
		log.Fatalf("Failed to open camera %v: %v", cfg.CameraURI, err)
	}

	mjpegServer := sink.NewMJPEGServer()

	live := mjpegServer.NewStream("live")
	defer live.Close()

	mask := mjpegServer.NewStream("mask")
	defer mask.Close()

	debug := mjpegServer.NewStreamPool()
	defer debug.Close()

	statsws := serve.NewStatsUpdater()

	notifier := &notify.Notifier{
		HoursStart: cfg.NotificationHoursStart,
		HoursEnd:   cfg.NotificationHoursEnd,
	}

	push, err := notify.NewWebPush(events.DB(), cfg.PushSubscriber)
	if err != nil {
		log.Fatalf("Failed to initialize web push: %v", err)
	}
	notifier.Listeners = append(notifier.Listeners, push)

	if cfg.MQTTBroker != "" {
		mq, err := notify.NewMQTT(cfg.MQTTBroker, cfg.MQTTTopic)
		if err != nil {
			log.Errorf("MQTT unavailable, continuing without it: %v", err)
		} else {
			defer mq.Close()
			notifier.Listeners = append(notifier.Listeners, mq)
		}
	}

	sys := scare.New(scare.Options{
		Source:    src,
		Settings:  settings,
		Audio:     sounds,
		Listeners: []scare.FireListener{events, notifier, statsws},
		Debug:     debug,
	})

	go func() {
		if err := sys.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("Processing loop exited: %v", err)
		}
	}()

	pumpOpts := scare.PumpOptions{
		Live:    []sink.Sink{live},
		Mask:    []sink.Sink{mask},
		Updater: statsws,
	}
	if *window {
		w := sink.NewWindow("scarecam")
		defer w.Close()
		pumpOpts.Live = append(pumpOpts.Live, w)
	}
	go scare.NewPump(sys, pumpOpts).Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/mjpeg", mjpegServer)
	mux.Handle("/status", &serve.StatusServer{
		Sys:         sys,
		Sounds:      sounds,
		StreamNames: mjpegServer.Names,
	})
	(&serve.ControlServer{Settings: settings, Sys: sys, Sounds: sounds}).RegisterHandlers(mux)
	mux.Handle("/events", &serve.EventServer{Events: events})
	mux.Handle("/snapshot", &serve.SnapshotServer{Events: events})
	mux.Handle("/statsws", statsws)
	push.RegisterHandlers(mux)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/fgprof", fgprof.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)
	mux.Handle("/", http.FileServer(http.Dir(*staticDir)))

	go func() {
		log.Infof("Hosting web frontend on %v", cfg.HTTPAddr)
		h := handlers.CombinedLoggingHandler(os.Stdout, mux)
		if err := http.ListenAndServe(cfg.HTTPAddr, h); err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	log.Infof("Caught signal %v, shutting down", sig)

	cancel()
	sys.Stopped().Wait()
	log.Infof("Camera released, exiting")
}
