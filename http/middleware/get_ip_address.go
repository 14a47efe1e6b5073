package middleware

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/xy-planning-network/trailhead"
)

// UnknownIPAddress is what GetIPAddress reports when no public address is found.
const UnknownIPAddress = "0.0.0.0"

// An ipRange is an inclusive range of IPv4 addresses.
type ipRange struct {
	start net.IP
	end   net.IP
}

func (r ipRange) contains(ip net.IP) bool {
	return bytes.Compare(ip, r.start) >= 0 && bytes.Compare(ip, r.end) <= 0
}

// IANA defined IPv4 non-public ranges
var privateRanges = []ipRange{
	{start: net.ParseIP("10.0.0.0").To4(), end: net.ParseIP("10.255.255.255").To4()},
	{start: net.ParseIP("100.64.0.0").To4(), end: net.ParseIP("100.127.255.255").To4()},
	{start: net.ParseIP("172.16.0.0").To4(), end: net.ParseIP("172.31.255.255").To4()},
	{start: net.ParseIP("192.0.0.0").To4(), end: net.ParseIP("192.0.0.255").To4()},
	{start: net.ParseIP("192.168.0.0").To4(), end: net.ParseIP("192.168.255.255").To4()},
	{start: net.ParseIP("198.18.0.0").To4(), end: net.ParseIP("198.19.255.255").To4()},
}

// InjectIPAddress grabs the IP address in the *http.Request.Header
// and promotes it to *http.Request.Context under [trailhead.IpAddrKey].
//
// When the headers carry no public address, the host of RemoteAddr is used instead.
func InjectIPAddress() Adapter {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := GetIPAddress(r.Header)
			if ip == UnknownIPAddress {
				if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
					ip = host
				}
			}

			h.ServeHTTP(w, r.Clone(context.WithValue(r.Context(), trailhead.IpAddrKey, ip)))
		})
	}
}

// GetIPAddress parses "X-Forwarded-For" and "X-Real-Ip" headers for the IP address
// from the request.
//
// GetIPAddress skips addresses from non-public ranges.
func GetIPAddress(hm http.Header) string {
	for _, h := range []string{"X-Forwarded-For", "X-Real-Ip"} {
		addresses := strings.Split(hm.Get(h), ",")
		// march from right to left until we get a public address
		// that will be the address right before our proxy.
		for i := len(addresses) - 1; i >= 0; i-- {
			ip := strings.TrimSpace(addresses[i])
			realIP := net.ParseIP(ip)
			if !realIP.IsGlobalUnicast() || isPrivateSubnet(realIP) {
				continue
			}
			return ip
		}
	}
	return UnknownIPAddress
}

// isPrivateSubnet checks whether the IP address is in a private subnet.
//
// Only IPv4 subnets are supported.
func isPrivateSubnet(ip net.IP) bool {
	v4 := ip.To4()
	if v4 == nil {
		return false
	}

	for _, r := range privateRanges {
		if r.contains(v4) {
			return true
		}
	}

	return false
}
