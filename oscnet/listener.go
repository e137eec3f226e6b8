package oscnet

import (
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"osc2midi/errs"
)

// MaxPacketSize is the largest datagram read.
const MaxPacketSize = 65535

// State of a Listener.
type State int32

const (
	Idle State = iota
	Listening
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	default:
		return "stopped"
	}
}

// Handler receives each decoded message in arrival order.
type Handler func(msg *osc.Message)

// CheckPort reports a PortUnavailable error if host:port cannot be bound
// for UDP right now.
func CheckPort(host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	c, err := net.ListenPacket("udp", addr)
	if err != nil {
		return errs.E(errs.PortUnavailable, "bind "+addr, err)
	}
	return c.Close()
}

// Listener is the OSC receive loop bound to one UDP socket.
type Listener struct {
	conn  net.PacketConn
	state atomic.Int32
	log   logrus.FieldLogger
}

// Listen binds host:port. The listener starts Idle.
func Listen(host string, port int, log logrus.FieldLogger) (*Listener, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, errs.E(errs.PortUnavailable, "bind "+addr, err)
	}
	return &Listener{
		conn: conn,
		log:  log.WithField("component", "osc-in"),
	}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// State returns the current state.
func (l *Listener) State() State {
	return State(l.state.Load())
}

// Serve reads datagrams until Close. Each datagram is decoded and its
// messages passed to handle before the next one is read. Undecodable
// datagrams are logged and dropped. Serve returns nil after Close.
func (l *Listener) Serve(handle Handler) error {
	if !l.state.CompareAndSwap(int32(Idle), int32(Listening)) {
		return errors.Errorf("osc listener is %s", l.State())
	}
	l.log.WithField("addr", l.Addr().String()).Info("listening for OSC")

	buf := make([]byte, MaxPacketSize)
	var tempDelay time.Duration
	for {
		n, from, err := l.conn.ReadFrom(buf)
		if err != nil {
			if l.State() == Stopped || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay *= 2
				}
				if max := time.Second; tempDelay > max {
					tempDelay = max
				}
				time.Sleep(tempDelay)
				continue
			}
			l.state.Store(int32(Stopped))
			return errors.Wrap(err, "read OSC datagram")
		}
		tempDelay = 0

		packet, err := decode(buf[:n])
		if err != nil {
			l.log.WithError(errs.E(errs.DecodeError, "decode OSC", err)).
				WithField("from", addrString(from)).
				Warn("dropped OSC packet")
			continue
		}
		dispatch(packet, handle)
	}
}

// decode parses one datagram. A parser panic on hostile input is turned
// into an error so the loop survives it.
func decode(b []byte) (p osc.Packet, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, errors.Errorf("osc parser panic: %v", r)
		}
	}()
	p, err = osc.ParsePacket(string(b))
	if err == nil && p == nil {
		err = errors.New("not an OSC message or bundle")
	}
	return p, err
}

// dispatch flattens bundles depth first. Timetags are not honoured; every
// element is delivered immediately.
func dispatch(p osc.Packet, handle Handler) {
	switch p := p.(type) {
	case *osc.Message:
		handle(p)
	case *osc.Bundle:
		for _, m := range p.Messages {
			handle(m)
		}
		for _, b := range p.Bundles {
			dispatch(b, handle)
		}
	}
}

// Close stops Serve and releases the socket.
func (l *Listener) Close() error {
	if State(l.state.Swap(int32(Stopped))) == Stopped {
		return nil
	}
	return l.conn.Close()
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}
