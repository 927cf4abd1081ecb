package target

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

var ErrInvalidAddress = errors.New("invalid target address")

// ValidateAddress accepts dotted-quad IPv4 addresses only.
func ValidateAddress(s string) error {
	a, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidAddress, s, err)
	}
	if !a.Is4() {
		return fmt.Errorf("%w %q: not ipv4", ErrInvalidAddress, s)
	}
	return nil
}
