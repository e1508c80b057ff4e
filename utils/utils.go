package utils

import (
	"bytes"
	"net"
	"net/http"
	"strings"
)

type IpData struct {
	Ip   string
	Port string
}

func GetRequestIpData(r *http.Request) (IpData, error) {
	ip, port, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return IpData{}, err
	}
	return IpData{Ip: ip, Port: port}, nil
}

// GetForwardedForIpData returns the client address reported by the proxy
// chain in front of us. Port is not forwarded by proxies and stays empty.
func GetForwardedForIpData(r *http.Request) IpData {
	return IpData{Ip: detectForwardedForIp(r)}
}

type ipRange struct {
	start net.IP
	end   net.IP
}

// inRange - check to see if a given ip address is within a range given
func inRange(r ipRange, ipAddress net.IP) bool {
	return bytes.Compare(ipAddress, r.start) >= 0 && bytes.Compare(ipAddress, r.end) <= 0
}

var privateRanges = []ipRange{
	{start: net.ParseIP("10.0.0.0"), end: net.ParseIP("10.255.255.255")},
	{start: net.ParseIP("100.64.0.0"), end: net.ParseIP("100.127.255.255")},
	{start: net.ParseIP("172.16.0.0"), end: net.ParseIP("172.31.255.255")},
	{start: net.ParseIP("192.0.0.0"), end: net.ParseIP("192.0.0.255")},
	{start: net.ParseIP("192.168.0.0"), end: net.ParseIP("192.168.255.255")},
	{start: net.ParseIP("198.18.0.0"), end: net.ParseIP("198.19.255.255")},
}

// isPrivateSubnet - only ipv4 ranges are checked
func isPrivateSubnet(ipAddress net.IP) bool {
	ip := ipAddress.To16()
	if ipAddress.To4() == nil {
		return false
	}
	for _, r := range privateRanges {
		if inRange(r, ip) {
			return true
		}
	}
	return false
}

func detectForwardedForIp(r *http.Request) string {
	for _, h := range []string{"X-Forwarded-For", "X-Real-Ip"} {
		addresses := strings.Split(r.Header.Get(h), ",")
		// march from right to left until we get a public address
		// that will be the address right before our proxy.
		for i := len(addresses) - 1; i >= 0; i-- {
			ip := strings.TrimSpace(addresses[i])
			realIP := net.ParseIP(ip)
			if realIP == nil || !realIP.IsGlobalUnicast() || isPrivateSubnet(realIP) {
				continue
			}
			return ip
		}
	}
	return ""
}
