// Command shutter-controller drives the observatory shutter motor, serves
// the serial command protocol, and publishes state changes to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/shutter-controller/internal/control"
	"github.com/sweeney/shutter-controller/internal/gpio"
	"github.com/sweeney/shutter-controller/internal/mqtt"
	"github.com/sweeney/shutter-controller/internal/status"
	"github.com/sweeney/shutter-controller/internal/transport"
	"github.com/sweeney/shutter-controller/internal/uart"
	"github.com/sweeney/shutter-controller/internal/web"
)

func main() {
	device := flag.String("device", "/dev/ttyAMA0", "Serial device for the host link (empty to disable)")
	baud := flag.Int("baud", 9600, "Serial baud rate")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address (empty to disable)")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	printState := flag.Bool("print-state", false, "Print current input state and exit")

	pins := map[gpio.Pin]*int{}
	for pin, def := range gpio.DefaultPinNumbers {
		pins[pin] = flag.Int("pin-"+pin.String(), def, "BCM pin number for "+pin.String())
	}

	flag.Parse()

	pinNumbers := map[gpio.Pin]int{}
	for pin, n := range pins {
		pinNumbers[pin] = *n
	}

	if err := run(*device, *baud, *broker, *httpAddr, *printState, pinNumbers); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(device string, baud int, broker, httpAddr string, printState bool, pinNumbers map[gpio.Pin]int) error {
	conn, err := gpio.NewRealConn(pinNumbers)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer conn.Close()

	if printState {
		for _, pin := range []gpio.Pin{gpio.LimitOpen, gpio.LimitClosed, gpio.ButtonOpen, gpio.ButtonClose} {
			fmt.Printf("%s: %s\n", pin, levelString(conn.Read(pin)))
		}
		return nil
	}

	ctl, err := control.New(conn)
	if err != nil {
		return fmt.Errorf("init controller: %w", err)
	}

	port := transport.NewPort()
	defer port.Close()

	if device != "" {
		serialDev, err := uart.Open(device, baud)
		if err != nil {
			return fmt.Errorf("init serial: %w", err)
		}
		defer serialDev.Close()
		go runReadPump(serialDev, port)
		go runWritePump(port, serialDev)
		log.Printf("serial link on %s at %d baud", device, baud)
	}

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if broker != "" {
		real, err := mqtt.NewRealPublisher(broker)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer real.Close()
		publisher = real
		mqttStatus = real
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		Device:   device,
		Baud:     baud,
		TickMs:   control.TickInterval.Milliseconds(),
		Broker:   broker,
		HTTPAddr: httpAddr,
	})
	tracker.Update(ctl.Snapshot())

	// Publish startup event with full status snapshot
	if publisher != nil {
		snap := tracker.Snapshot()
		startupEvent := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP"),
		}
		if err := publisher.PublishSystem(startupEvent); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: device=%s baud=%d broker=%s tick=%v", device, baud, broker, control.TickInterval)

	tick := time.NewTicker(control.TickInterval)
	defer tick.Stop()
	// The poll loop runs faster than the tick so commands are applied with
	// sub-tick latency, as the original main loop did by spinning.
	poll := time.NewTicker(10 * time.Millisecond)
	defer poll.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctl, port, publisher, mqttStatus, tracker, time.Now, tick.C, poll.C, sigCh)
}

func runLoop(ctl *control.Controller, port *transport.Port, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, tick, poll <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if publisher != nil {
				event := mqtt.SystemEvent{
					Timestamp: now(),
					Event:     "SHUTDOWN",
					Reason:    signalName,
					Retained:  true,
				}
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					tracker.Update(ctl.Snapshot())
					snap := tracker.Snapshot()
					event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN")
				}
				if err := publisher.PublishSystem(event); err != nil {
					log.Printf("failed to publish shutdown event: %v", err)
				} else {
					log.Printf("published shutdown event")
				}
			}
			return nil

		case <-tick:
			events := ctl.Tick()
			publishEvents(publisher, now, events)

			if tracker != nil {
				tracker.Update(ctl.Snapshot())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

		case <-poll:
			events := ctl.Poll(port)
			publishEvents(publisher, now, events)
		}
	}
}

func publishEvents(publisher mqtt.Publisher, now func() time.Time, events []control.Event) {
	for _, event := range events {
		log.Printf("event: %s (state=%s heartbeat=%d)", event.Type, event.Snapshot.Current, event.Snapshot.HeartbeatRemaining)
		if publisher == nil {
			continue
		}
		err := publisher.Publish(mqtt.Event{
			Timestamp: now(),
			Type:      event.Type,
			Snapshot:  event.Snapshot,
		})
		if err != nil {
			log.Printf("publish error: %v", err)
			// Don't crash on publish failure
		}
	}
}

func runReadPump(dev io.Reader, port *transport.Port) {
	if err := uart.ReadPump(dev, port); err != nil {
		log.Printf("serial read pump stopped: %v", err)
	}
}

func runWritePump(port *transport.Port, dev io.Writer) {
	if err := uart.WritePump(port, dev); err != nil {
		log.Printf("serial write pump stopped: %v", err)
	}
}

func levelString(inactive bool) string {
	// Inputs are pull-up biased: a low read means the switch is asserted.
	if inactive {
		return "INACTIVE"
	}
	return "ACTIVE"
}
