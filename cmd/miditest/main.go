package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/sirupsen/logrus"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"osc2midi/codec"
	"osc2midi/midi"
	"osc2midi/oscnet"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)
	ports := midi.NewPorts(nil)

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts(ports)
	case "poll":
		err = pollDevices(ports)
	case "watch":
		if len(os.Args) < 3 {
			usage()
			return
		}
		err = watchInput(ports, strings.Join(os.Args[2:], " "), log)
	case "send":
		if len(os.Args) < 5 {
			usage()
			return
		}
		err = sendOSC(os.Args[2], os.Args[3], os.Args[4], log)
	case "listen":
		if len(os.Args) < 3 {
			usage()
			return
		}
		err = listenOSC(os.Args[2], log)
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("osc2midi diagnostics")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                              - List all MIDI ports")
	fmt.Println("  poll                              - Poll for device changes")
	fmt.Println("  watch <midi-in>                   - Print events from a MIDI input and their OSC form")
	fmt.Println("  send <host:port> <address> <int>  - Send one OSC message")
	fmt.Println("  listen <port>                     - Print OSC messages and their MIDI form")
}

func interrupted() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func listPorts(ports *midi.Ports) error {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Printf("(waiting up to %s...)\n", midi.ScanTimeout)

	ins, err := ports.InNames()
	if err != nil {
		return err
	}
	for i, name := range ins {
		fmt.Printf("  %d: %s\n", i, name)
	}

	outs, err := ports.OutNames()
	if err != nil {
		return err
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, name := range outs {
		fmt.Printf("  %d: %s\n", i, name)
	}
	return nil
}

func pollDevices(ports *midi.Ports) error {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Connect/disconnect a device to test. Ctrl+C to exit.")

	ctx, cancel := interrupted()
	defer cancel()

	lastIn := ""
	lastOut := ""
	tick := time.NewTicker(2 * time.Second)
	defer tick.Stop()

	for {
		ins, err := ports.InNames()
		if err != nil {
			fmt.Println("  scan:", err)
		}
		outs, err := ports.OutNames()
		if err != nil {
			fmt.Println("  scan:", err)
		}

		currentIn := strings.Join(ins, ",")
		currentOut := strings.Join(outs, ",")

		if currentIn != lastIn || currentOut != lastOut {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", ins)
			fmt.Printf("  Outputs: %v\n", outs)
			lastIn = currentIn
			lastOut = currentOut
		}

		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}
	}
}

func watchInput(ports *midi.Ports, name string, log logrus.FieldLogger) error {
	port, err := ports.In(name)
	if err != nil {
		return err
	}
	in, err := midi.OpenInput(port, log)
	if err != nil {
		return err
	}
	defer in.Close()

	ctx, cancel := interrupted()
	defer cancel()

	go midi.Watch(ctx, ports, name, "", midi.PollRate, log, in.Fail)

	fmt.Printf("Watching %s. Ctrl+C to exit.\n", name)
	for {
		ev, err := in.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), ev)
		for _, msg := range codec.ToOSC(ev, codec.EmitBoth) {
			fmt.Printf("    %s %v\n", msg.Address, msg.Arguments)
		}
	}
}

func sendOSC(target, address, value string, log logrus.FieldLogger) error {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return err
	}
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return err
	}

	sink, err := oscnet.Dial(host, port, log)
	if err != nil {
		return err
	}
	defer sink.Close()

	msg := osc.NewMessage(address, int32(n))
	if err := sink.Send(msg); err != nil {
		return err
	}
	fmt.Printf("sent %s %d to %s\n", address, n, sink.Target())
	return nil
}

func listenOSC(portStr string, log logrus.FieldLogger) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return err
	}
	l, err := oscnet.Listen("0.0.0.0", port, log)
	if err != nil {
		return err
	}

	ctx, cancel := interrupted()
	defer cancel()
	go func() {
		<-ctx.Done()
		l.Close()
	}()

	fmt.Printf("Listening on %s. Ctrl+C to exit.\n", l.Addr())
	return l.Serve(func(msg *osc.Message) {
		fmt.Printf("[%s] %s %v\n", time.Now().Format("15:04:05.000"), msg.Address, msg.Arguments)
		ev, ok, err := codec.FromOSC(msg)
		switch {
		case err != nil:
			fmt.Println("    ", err)
		case ok:
			fmt.Println("    ->", ev)
		}
	})
}
