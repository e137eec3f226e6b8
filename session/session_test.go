package session

import (
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/pkg/errors"
	logtest "github.com/sirupsen/logrus/hooks/test"
	gomidi "gitlab.com/gomidi/midi/v2"

	"osc2midi/codec"
	"osc2midi/errs"
	"osc2midi/midi/fakedrv"
	"osc2midi/oscnet"
)

type rig struct {
	drv    *fakedrv.Driver
	in     *fakedrv.In
	out    *fakedrv.Out
	ctrl   *Controller
	logs   *logtest.Hook
	target *oscnet.Listener
	recv   chan *osc.Message
	cfg    Config
}

func newRig(t *testing.T) *rig {
	t.Helper()
	log, hook := logtest.NewNullLogger()

	r := &rig{
		drv:  fakedrv.New(),
		logs: hook,
		recv: make(chan *osc.Message, 256),
	}
	r.in = r.drv.AddIn("Keys")
	r.out = r.drv.AddOut("Synth")
	r.ctrl = NewController(r.drv, log)
	r.ctrl.WatchInterval = 5 * time.Millisecond

	target, err := oscnet.Listen("127.0.0.1", 0, log)
	if err != nil {
		t.Fatal(err)
	}
	r.target = target
	go target.Serve(func(m *osc.Message) { r.recv <- m })

	r.cfg = Config{
		ListenAddr: "127.0.0.1",
		ListenPort: freePort(t),
		TargetIP:   "127.0.0.1",
		TargetPort: target.Addr().(*net.UDPAddr).Port,
		MIDIIn:     "Keys",
		MIDIOut:    "Synth",
	}
	t.Cleanup(func() {
		r.ctrl.Stop()
		target.Close()
	})
	return r
}

func freePort(t *testing.T) int {
	t.Helper()
	c, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	return c.LocalAddr().(*net.UDPAddr).Port
}

func (r *rig) sendOSC(t *testing.T, msgs ...*osc.Message) {
	t.Helper()
	conn, err := net.Dial("udp", net.JoinHostPort("127.0.0.1", strconv.Itoa(r.cfg.ListenPort)))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	for _, m := range msgs {
		data, err := m.MarshalBinary()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := conn.Write(data); err != nil {
			t.Fatal(err)
		}
	}
}

func waitSent(t *testing.T, out *fakedrv.Out, n int) [][]byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sent := out.Sent(); len(sent) >= n {
			return sent
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("MIDI output got %d messages, want %d", len(out.Sent()), n)
	return nil
}

func (r *rig) waitOSC(t *testing.T, n int) []*osc.Message {
	t.Helper()
	var msgs []*osc.Message
	for len(msgs) < n {
		select {
		case m := <-r.recv:
			msgs = append(msgs, m)
		case <-time.After(2 * time.Second):
			t.Fatalf("OSC target got %d messages, want %d", len(msgs), n)
		}
	}
	return msgs
}

func TestOSCToMIDI(t *testing.T) {
	r := newRig(t)
	if _, err := r.ctrl.Start(r.cfg); err != nil {
		t.Fatal(err)
	}

	r.sendOSC(t,
		osc.NewMessage("/foo/bar", int32(1)),
		osc.NewMessage("/ch1n60", "loud"),
		osc.NewMessage("/ch1n64", int32(90)),
		osc.NewMessage("/ch2cc7", int32(200)),
	)

	sent := waitSent(t, r.out, 2)
	want := []codec.Event{
		codec.NoteOnEvent(0, 64, 90),
		codec.ControlChangeEvent(1, 7, 127),
	}
	for i, w := range want {
		got, ok := codec.FromMIDI(gomidi.Message(sent[i]))
		if !ok || got != w {
			t.Errorf("MIDI %d = %v, want %v", i, got, w)
		}
	}

	var outLine, malformed bool
	for _, e := range r.logs.AllEntries() {
		if e.Message == "OUT: note_on channel=0 note=64 velocity=90" {
			outLine = true
		}
		if err, ok := e.Data["error"].(error); ok && errs.Is(err, errs.MalformedArgument) {
			malformed = true
		}
	}
	if !outLine {
		t.Error("no OUT log line for the note")
	}
	if !malformed {
		t.Error("malformed argument not logged")
	}
}

func TestMIDIToOSC(t *testing.T) {
	r := newRig(t)
	if _, err := r.ctrl.Start(r.cfg); err != nil {
		t.Fatal(err)
	}

	r.in.Feed(gomidi.ControlChange(3, 7, 100))

	msgs := r.waitOSC(t, 4)
	want := []struct {
		addr string
		val  int32
	}{
		{"/ch4cc7", 100},
		{"/channel", 4},
		{"/cc", 7},
		{"/value", 100},
	}
	for i, w := range want {
		if msgs[i].Address != w.addr || msgs[i].Arguments[0] != w.val {
			t.Errorf("message %d = %v, want %s %d", i, msgs[i], w.addr, w.val)
		}
	}
}

func TestEmitPolicyLegacy(t *testing.T) {
	r := newRig(t)
	r.cfg.Emit = codec.EmitLegacy
	if _, err := r.ctrl.Start(r.cfg); err != nil {
		t.Fatal(err)
	}

	r.in.Feed(gomidi.NoteOn(2, 60, 100))
	r.in.Feed(gomidi.NoteOn(2, 60, 0))

	msgs := r.waitOSC(t, 2)
	if msgs[0].Address != "/ch3n60" || msgs[0].Arguments[0] != int32(100) {
		t.Errorf("first = %v", msgs[0])
	}
	if msgs[1].Address != "/ch3n60" || msgs[1].Arguments[0] != int32(0) {
		t.Errorf("second = %v", msgs[1])
	}
}

func TestBothDirectionsConcurrently(t *testing.T) {
	r := newRig(t)
	if _, err := r.ctrl.Start(r.cfg); err != nil {
		t.Fatal(err)
	}

	const n = 20
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			r.in.Feed(gomidi.ControlChange(0, 1, uint8(i)))
		}
	}()
	go func() {
		defer wg.Done()
		conn, err := net.Dial("udp", net.JoinHostPort("127.0.0.1", strconv.Itoa(r.cfg.ListenPort)))
		if err != nil {
			t.Error(err)
			return
		}
		defer conn.Close()
		for i := 0; i < n; i++ {
			data, _ := osc.NewMessage("/ch1cc2", int32(i)).MarshalBinary()
			if _, err := conn.Write(data); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	wg.Wait()

	msgs := r.waitOSC(t, 4*n)
	for i := 0; i < n; i++ {
		if v := msgs[4*i].Arguments[0]; v != int32(i) {
			t.Fatalf("burst %d carries %v, want in-order delivery", i, v)
		}
	}
	sent := waitSent(t, r.out, n)
	for i := 0; i < n; i++ {
		got, _ := codec.FromMIDI(gomidi.Message(sent[i]))
		if got != codec.ControlChangeEvent(0, 2, uint8(i)) {
			t.Fatalf("MIDI %d = %v", i, got)
		}
	}
}

func TestStartRejectsBoundPortBeforeOpeningDevices(t *testing.T) {
	r := newRig(t)
	busy, err := net.ListenPacket("udp", net.JoinHostPort("127.0.0.1", strconv.Itoa(r.cfg.ListenPort)))
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()

	_, err = r.ctrl.Start(r.cfg)
	if !errs.Is(err, errs.PortUnavailable) {
		t.Fatalf("err = %v, want PortUnavailable", err)
	}
	if r.out.IsOpen() || r.in.IsOpen() {
		t.Error("a MIDI device was opened")
	}
	if r.ctrl.Active() != nil {
		t.Error("session left active")
	}
}

func TestStartReleasesOnDeviceOpenError(t *testing.T) {
	r := newRig(t)
	r.in.OpenErr = errors.New("device busy")

	_, err := r.ctrl.Start(r.cfg)
	if !errs.Is(err, errs.DeviceOpenError) {
		t.Fatalf("err = %v, want DeviceOpenError", err)
	}
	if r.out.IsOpen() {
		t.Error("MIDI output not released")
	}
	if err := oscnet.CheckPort("127.0.0.1", r.cfg.ListenPort); err != nil {
		t.Errorf("listen port not free: %v", err)
	}

	r.cfg.MIDIIn = "Missing"
	r.in.OpenErr = nil
	if _, err := r.ctrl.Start(r.cfg); !errs.Is(err, errs.DeviceOpenError) {
		t.Errorf("missing device: err = %v, want DeviceOpenError", err)
	}
}

func TestStartTwiceRejected(t *testing.T) {
	r := newRig(t)
	if _, err := r.ctrl.Start(r.cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ctrl.Start(r.cfg); !errs.Is(err, errs.SessionActive) {
		t.Fatalf("err = %v, want SessionActive", err)
	}
}

func TestStopReleasesEverything(t *testing.T) {
	r := newRig(t)
	s, err := r.ctrl.Start(r.cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.ctrl.Stop(); err != nil {
		t.Fatal(err)
	}

	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}
	if s.Err() != nil {
		t.Errorf("Err = %v after normal stop", s.Err())
	}
	if r.in.IsOpen() || r.out.IsOpen() || r.in.Listening() {
		t.Error("MIDI ports left open")
	}
	if err := oscnet.CheckPort("127.0.0.1", r.cfg.ListenPort); err != nil {
		t.Errorf("listen port not released: %v", err)
	}

	if _, err := r.ctrl.Start(r.cfg); err != nil {
		t.Fatalf("restart: %v", err)
	}
}

func TestDeviceLossEndsSession(t *testing.T) {
	r := newRig(t)
	s, err := r.ctrl.Start(r.cfg)
	if err != nil {
		t.Fatal(err)
	}

	r.drv.Unplug("Keys")

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session still running after unplug")
	}
	if !errs.Is(s.Err(), errs.DeviceError) {
		t.Errorf("Err = %v, want DeviceError", s.Err())
	}
	if r.ctrl.Active() != nil {
		t.Error("controller still reports the session")
	}
	if r.out.IsOpen() {
		t.Error("MIDI output left open")
	}
}

func TestOutputUnplugEndsSession(t *testing.T) {
	r := newRig(t)
	s, err := r.ctrl.Start(r.cfg)
	if err != nil {
		t.Fatal(err)
	}

	r.drv.Unplug("Synth")

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session still running after output unplug")
	}
	if !errs.Is(s.Err(), errs.DeviceError) {
		t.Errorf("Err = %v, want DeviceError", s.Err())
	}
}

func TestValidate(t *testing.T) {
	good := Config{ListenPort: 8000, TargetIP: "10.0.0.2", TargetPort: 9000, MIDIIn: "a", MIDIOut: "b"}
	if err := good.Validate(); err != nil {
		t.Fatalf("good config: %v", err)
	}

	tests := map[string]func(c *Config){
		"no input":         func(c *Config) { c.MIDIIn = " " },
		"no output":        func(c *Config) { c.MIDIOut = "" },
		"listen port zero": func(c *Config) { c.ListenPort = 0 },
		"target port big":  func(c *Config) { c.TargetPort = 70000 },
		"no target":        func(c *Config) { c.TargetIP = "" },
		"bad listen addr":  func(c *Config) { c.ListenAddr = "nope" },
	}
	for name, mutate := range tests {
		c := good
		mutate(&c)
		if err := c.Validate(); !errs.Is(err, errs.InvalidConfig) {
			t.Errorf("%s: err = %v, want InvalidConfig", name, err)
		}
	}
	if good.ListenHost() != "0.0.0.0" {
		t.Errorf("ListenHost = %q", good.ListenHost())
	}
}
