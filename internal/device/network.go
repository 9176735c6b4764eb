package device

import "net"

// NetworkAvailable reports whether the host has a usable non-loopback
// address. Connect attempts are skipped while this is false so that failed
// dials during boot don't count against the escalation thresholds.
func NetworkAvailable() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				return true
			}
		}
	}
	return false
}
