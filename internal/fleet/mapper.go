package fleet

import (
	"fmt"
	"net"
	"os"
	"strings"
)

// AddressMapper resolves the local node's identity against the configured
// ordered address list, trying the host's hostname, short hostname, and FQDN,
// each matched against the addresses and their configured aliases.
type AddressMapper struct {
	addressList []string
	aliases     map[string][]string
}

// NewAddressMapper builds a mapper over the configured address list.
// aliases maps a configured address name to extra hostnames/IPs that
// should also resolve to it (e.g. a node with more than one NIC).
func NewAddressMapper(addressList []string, aliases map[string][]string) *AddressMapper {
	return &AddressMapper{addressList: addressList, aliases: aliases}
}

// LocalAddress returns the configured address name that identifies this
// host, trying in order: the OS hostname, its short form (when it differs),
// and its FQDN from a CNAME lookup; each candidate matches either a
// configured address or one of its aliases. It is an error (fatal at init, per the caller's
// contract) if the host does not appear in the configuration.
func (m *AddressMapper) LocalAddress() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("resolve local hostname: %w", err)
	}

	candidates := []string{hostname}
	if short := shortName(hostname); short != hostname {
		candidates = append(candidates, short)
	}
	if fqdn := lookupFQDN(hostname); fqdn != "" {
		candidates = append(candidates, fqdn)
	}

	for _, candidate := range candidates {
		if m.Valid(candidate) {
			return m.canonicalize(candidate), nil
		}
	}

	return "", fmt.Errorf("host %q does not appear in the configured address list", hostname)
}

// Valid reports whether name is one of the configured addresses, or an
// alias of one.
func (m *AddressMapper) Valid(name string) bool {
	return m.canonicalize(name) != ""
}

// Filter keeps only the candidates that are valid configured addresses.
func (m *AddressMapper) Filter(candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if canonical := m.canonicalize(c); canonical != "" {
			out = append(out, canonical)
		}
	}
	return out
}

func (m *AddressMapper) canonicalize(name string) string {
	for _, addr := range m.addressList {
		if addr == name {
			return addr
		}
	}
	for addr, aliases := range m.aliases {
		for _, alias := range aliases {
			if alias == name {
				return addr
			}
		}
	}
	return ""
}

func shortName(hostname string) string {
	if i := strings.IndexByte(hostname, '.'); i >= 0 {
		return hostname[:i]
	}
	return hostname
}

func lookupFQDN(hostname string) string {
	addrs, err := net.LookupCNAME(hostname)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(addrs, ".")
}
