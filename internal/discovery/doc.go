// Package discovery finds Sodatap BLE gateways on the local network.
//
// Gateways advertise themselves via mDNS/DNS-SD as "_sodatap._tcp"
// services. Each gateway's TXT records list the BLE MAC addresses of the
// units it can reach, so a client can locate a route to a specific unit
// without any manual configuration.
//
// Discovery of the units themselves (BLE advertising scans) happens on the
// gateway side and is out of scope here.
package discovery
