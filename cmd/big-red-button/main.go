// Command big-red-button debounces a push-button on a GPIO line, drives its
// indicator light, and publishes button events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/big-red-button/internal/button"
	"github.com/sweeney/big-red-button/internal/gpio"
	"github.com/sweeney/big-red-button/internal/irq"
	"github.com/sweeney/big-red-button/internal/logic"
	"github.com/sweeney/big-red-button/internal/mqtt"
	"github.com/sweeney/big-red-button/internal/status"
	"github.com/sweeney/big-red-button/internal/web"
)

const clientID = "big-red-button"

type config struct {
	mode       string
	poll       time.Duration
	edge       gpio.Edge
	chip       string
	pinButton  int
	pinLight   int
	activeLow  bool
	follow     bool
	broker     string
	heartbeat  time.Duration
	httpAddr   string
	printState bool
}

func main() {
	mode := flag.String("mode", "poll", `Button mode: "poll" (debounce filter) or "interrupt" (edge counter)`)
	poll := flag.Duration("poll", 5*time.Millisecond, "Tick interval")
	edge := flag.String("edge", "falling", `Edge counted as a push in interrupt mode: "rising" or "falling"`)
	chip := flag.String("chip", gpio.DefaultChip, "GPIO chip")
	pinButton := flag.Int("pin-button", gpio.DefaultPinButton, "BCM pin number for the button")
	pinLight := flag.Int("pin-light", gpio.DefaultPinLight, "BCM pin number for the light")
	activeLow := flag.Bool("active-low", true, "Button pulls the line low when pushed (poll mode)")
	follow := flag.Bool("follow", true, "Light follows the button (poll) or toggles per press (interrupt)")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	printState := flag.Bool("print-state", false, "Print current button state and exit")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")

	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	log.SetLevel(level)

	cfg := config{
		mode:       *mode,
		poll:       *poll,
		chip:       *chip,
		pinButton:  *pinButton,
		pinLight:   *pinLight,
		activeLow:  *activeLow,
		follow:     *follow,
		broker:     *broker,
		heartbeat:  *heartbeat,
		httpAddr:   *httpAddr,
		printState: *printState,
	}
	if cfg.edge, err = parseEdge(*edge); err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if cfg.mode != "poll" && cfg.mode != "interrupt" {
		log.Fatalf("fatal: unknown mode %q", cfg.mode)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config) error {
	chip, err := gpio.NewRealChip(cfg.chip, clientID)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer chip.Close()

	bcfg := button.Config{
		ButtonPin: cfg.pinButton,
		LightPin:  cfg.pinLight,
		ActiveLow: cfg.activeLow,
		Edge:      cfg.edge,
	}

	// Print state mode
	if cfg.printState {
		b, err := button.NewPolling(chip, bcfg)
		if err != nil {
			return fmt.Errorf("init button: %w", err)
		}
		defer b.Close()
		for i := 0; i < logic.HistoryDepth; i++ {
			b.Tick()
			time.Sleep(cfg.poll)
		}
		fmt.Printf("Button: %s\n", logic.StateOf(b.IsPushed()))
		return nil
	}

	startTime := time.Now()
	detector := logic.NewDetector(startTime)

	var (
		btn  button.Button
		step func(time.Time) *logic.Event
	)
	switch cfg.mode {
	case "interrupt":
		b, err := button.NewInterrupt(chip, irq.New(), bcfg)
		if err != nil {
			return fmt.Errorf("init button: %w", err)
		}
		btn, step = b, interruptStep(b, detector, cfg.follow)
	default:
		b, err := button.NewPolling(chip, bcfg)
		if err != nil {
			return fmt.Errorf("init button: %w", err)
		}
		btn, step = b, pollStep(b, detector, cfg.follow)
	}
	defer btn.Close()

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(cfg.broker, clientID)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	scfg := status.Config{
		Mode:        cfg.mode,
		PollMs:      cfg.poll.Milliseconds(),
		HeartbeatMs: cfg.heartbeat.Milliseconds(),
		PinButton:   cfg.pinButton,
		PinLight:    cfg.pinLight,
		Broker:      cfg.broker,
		HTTPPort:    cfg.httpAddr,
	}
	if cfg.mode == "interrupt" {
		scfg.Edge = cfg.edge.String()
	}
	tracker := status.NewTracker(startTime, scfg)
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	var httpLights chan bool
	if cfg.httpAddr != "" {
		httpLights = make(chan bool, 1)
		srv := web.New(cfg.httpAddr, tracker, httpLights)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.httpAddr)
	}

	log.WithFields(log.Fields{
		"mode":   cfg.mode,
		"poll":   cfg.poll,
		"button": cfg.pinButton,
		"light":  cfg.pinLight,
		"broker": cfg.broker,
	}).Info("started")

	ticker := time.NewTicker(cfg.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	d := &daemon{
		btn:        btn,
		step:       step,
		detector:   detector,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		heartbeat:  cfg.heartbeat,
		now:        time.Now,
	}
	return d.runLoop(ticker.C, publisher.LightCommands(), httpLights, sigCh)
}

// pollStep advances the debounce filter once per tick.
func pollStep(b *button.PollingButton, detector *logic.Detector, follow bool) func(time.Time) *logic.Event {
	return func(t time.Time) *logic.Event {
		if b.Tick() && follow {
			b.SetLight(b.IsPushed())
		}
		return detector.Observe(b.IsPushed(), t)
	}
}

// interruptStep collects the presses counted since the previous tick.
func interruptStep(b *button.InterruptButton, detector *logic.Detector, follow bool) func(time.Time) *logic.Event {
	return func(t time.Time) *logic.Event {
		n := b.TakePushes()
		if follow && n%2 == 1 {
			b.SetLight(!b.Light())
		}
		return detector.Press(n, t)
	}
}

// daemon is the state shared by the run loop. Everything here is touched
// only from the loop's goroutine, except the tracker.
type daemon struct {
	btn        button.Button
	step       func(time.Time) *logic.Event
	detector   *logic.Detector
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	heartbeat  time.Duration
	now        func() time.Time
}

func (d *daemon) runLoop(tick <-chan time.Time, mqttLights, httpLights <-chan bool, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			d.shutdown(s)
			return nil

		case on := <-mqttLights:
			d.setLight(on, "mqtt")

		case on := <-httpLights:
			d.setLight(on, "http")

		case <-tick:
			d.tick()
		}
	}
}

func (d *daemon) setLight(on bool, source string) {
	log.WithField("source", source).Debugf("light %v", on)
	d.btn.SetLight(on)
	if d.tracker != nil {
		d.tracker.SetLight(on)
	}
}

func (d *daemon) tick() {
	t := d.now()

	if event := d.step(t); event != nil {
		log.WithFields(log.Fields{
			"state":   event.State,
			"presses": event.Presses,
		}).Infof("event: %s", event.Type)
		if err := d.publisher.Publish(*event); err != nil {
			log.Printf("publish error: %v", err)
			// Don't crash on publish failure
		}
	}

	if d.tracker != nil {
		d.tracker.Update(d.detector.CurrentState(), d.detector.IsBaselined(), d.detector.EventCountsSnapshot())
		d.tracker.SetLight(d.btn.Light())
		if d.mqttStatus != nil {
			d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
		}
	}

	if !d.detector.IsBaselined() {
		// Still waiting for baseline
		return
	}

	// Check for heartbeat
	hbData := d.detector.CheckHeartbeat(t, d.heartbeat)
	if hbData == nil {
		return
	}
	log.Printf("heartbeat: uptime=%v pushed=%d released=%d presses=%d",
		hbData.Uptime, hbData.Counts.Pushed, hbData.Counts.Released, hbData.Counts.Presses)

	hbEvent := mqtt.SystemEvent{
		Timestamp: hbData.Timestamp,
		Event:     "HEARTBEAT",
	}
	if d.tracker != nil {
		// Refresh network info for heartbeat
		if net := readNetworkInfo(); net != nil {
			d.tracker.SetNetwork(net)
		}
		hbEvent.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "HEARTBEAT", "")
	}
	if err := d.publisher.PublishSystem(hbEvent); err != nil {
		log.Printf("heartbeat publish error: %v", err)
	}
}

func (d *daemon) shutdown(s os.Signal) {
	signalName := "UNKNOWN"
	if s == syscall.SIGINT {
		signalName = "SIGINT"
	} else if s == syscall.SIGTERM {
		signalName = "SIGTERM"
	}
	event := mqtt.SystemEvent{
		Timestamp: d.now(),
		Event:     "SHUTDOWN",
		Reason:    signalName,
		Retained:  true,
	}
	if d.tracker != nil {
		if d.mqttStatus != nil {
			d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
		}
		event.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "SHUTDOWN", signalName)
	}
	if err := d.publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
}

func parseEdge(s string) (gpio.Edge, error) {
	switch s {
	case "rising":
		return gpio.RisingEdge, nil
	case "falling":
		return gpio.FallingEdge, nil
	}
	return 0, fmt.Errorf("unknown edge %q (want rising or falling)", s)
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
