package config

import "net"

// LocalIP returns the address of the interface that routes to the internet.
// Connecting a UDP socket sends nothing. Falls back to 0.0.0.0.
func LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "0.0.0.0"
	}
	defer conn.Close()

	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && addr.IP != nil {
		return addr.IP.String()
	}
	return "0.0.0.0"
}
