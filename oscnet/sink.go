package oscnet

import (
	"net"
	"strconv"
	"sync"

	"github.com/hypebeast/go-osc/osc"
	"github.com/sirupsen/logrus"

	"osc2midi/errs"
)

// Sink sends OSC messages to one fixed destination. Sends are serialized so
// a burst from one caller is never interleaved with another's.
type Sink struct {
	mu     sync.Mutex
	conn   *net.UDPConn
	closed bool
	log    logrus.FieldLogger
}

// Dial resolves ip:port and connects a UDP socket to it.
func Dial(ip string, port int, log logrus.FieldLogger) (*Sink, error) {
	addr := net.JoinHostPort(ip, strconv.Itoa(port))
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errs.E(errs.TransportError, "resolve OSC target "+addr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, errs.E(errs.TransportError, "dial OSC target "+addr, err)
	}
	return &Sink{
		conn: conn,
		log:  log.WithField("component", "osc-out"),
	}, nil
}

// Target returns the destination address.
func (s *Sink) Target() string {
	return s.conn.RemoteAddr().String()
}

// Send writes msgs in order, one datagram each. It stops at the first
// failure and returns it as a TransportError.
func (s *Sink) Send(msgs ...*osc.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errs.Errorf(errs.TransportError, "send OSC", "client for %s is closed", s.conn.RemoteAddr())
	}
	for _, msg := range msgs {
		data, err := msg.MarshalBinary()
		if err != nil {
			return errs.E(errs.TransportError, "encode "+msg.Address, err)
		}
		if _, err := s.conn.Write(data); err != nil {
			return errs.E(errs.TransportError, "send "+msg.Address, err)
		}
	}
	return nil
}

// Close releases the socket.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
