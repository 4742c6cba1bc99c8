package network

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		realIP     string
		remoteAddr string
		want       string
	}{
		{name: "forwarded single", xff: "192.168.1.1", remoteAddr: "10.0.0.1:12345", want: "192.168.1.1"},
		{name: "forwarded chain", xff: "192.168.1.1, 10.0.0.2, 172.16.0.1", remoteAddr: "10.0.0.1:12345", want: "192.168.1.1"},
		{name: "forwarded padded", xff: "  192.168.1.1  ", remoteAddr: "10.0.0.1:12345", want: "192.168.1.1"},
		{name: "forwarded with port", xff: "192.168.1.1:8080", remoteAddr: "10.0.0.1:12345", want: "192.168.1.1"},
		{name: "empty forwarded entry falls through", xff: " , 10.0.0.2", realIP: "192.168.1.9", remoteAddr: "10.0.0.1:1", want: "192.168.1.9"},
		{name: "real ip", realIP: "192.168.1.2", remoteAddr: "10.0.0.1:12345", want: "192.168.1.2"},
		{name: "forwarded beats real ip", xff: "192.168.1.1", realIP: "192.168.1.2", remoteAddr: "10.0.0.1:1", want: "192.168.1.1"},
		{name: "remote addr ipv4", remoteAddr: "10.0.0.1:12345", want: "10.0.0.1"},
		{name: "remote addr ipv6", remoteAddr: "[::1]:12345", want: "::1"},
		{name: "remote addr without port", remoteAddr: "10.0.0.1", want: "10.0.0.1"},
		{name: "bracketed ipv6 without port", realIP: "[2001:db8::1]", remoteAddr: "10.0.0.1:1", want: "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
