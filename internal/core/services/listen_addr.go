package services

import (
	"fmt"
	"net"
	"strconv"
)

// FindListenAddr returns the first host:port in [startPort, endPort] that
// can be bound. The OAuth callback server and redirect URIs share it, so
// the port is only checked and released here.
func FindListenAddr(host string, startPort, endPort int) (string, error) {
	for port := startPort; port <= endPort; port++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		l, err := net.Listen("tcp", addr)
		if err != nil {
			continue
		}
		if err := l.Close(); err != nil {
			return "", fmt.Errorf("release %s: %w", addr, err)
		}
		return addr, nil
	}
	return "", fmt.Errorf("no free port on %s in range %d-%d", host, startPort, endPort)
}
