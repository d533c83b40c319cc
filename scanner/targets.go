package scanner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/netip"
	"os"
	"slices"

	"go4.org/netipx"
)

// ErrNotIPv4 is returned when a CIDR block is not an IPv4 prefix.
var ErrNotIPv4 = errors.New("only IPv4 CIDR blocks are supported")

// HostsFromCIDR returns the usable host addresses of an IPv4 block in
// ascending order, excluding the network and broadcast addresses.
// The base address is masked first, so 10.0.0.7/30 covers 10.0.0.0-10.0.0.3.
// A /31 or /32 block has no address between network+1 and broadcast-1 and
// yields nothing.
func HostsFromCIDR(cidr string) (iter.Seq[string], error) {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid cidr %q: %w", cidr, err)
	}
	if !prefix.Addr().Is4() {
		return nil, fmt.Errorf("invalid cidr %q: %w", cidr, ErrNotIPv4)
	}

	block := netipx.RangeOfPrefix(prefix)
	first := block.From().Next()
	last := block.To().Prev()

	return func(yield func(string) bool) {
		if !first.IsValid() || !last.IsValid() || last.Less(first) {
			return
		}
		for addr := first; ; addr = addr.Next() {
			if !yield(addr.String()) {
				return
			}
			if addr == last {
				return
			}
		}
	}, nil
}

// ReadHosts returns every non-empty line of r in order. Lines are not
// trimmed, deduplicated or validated.
func ReadHosts(r io.Reader) ([]string, error) {
	var hosts []string
	lines := bufio.NewScanner(r)
	for lines.Scan() {
		line := lines.Text()
		if line == "" {
			continue
		}
		hosts = append(hosts, line)
	}
	if err := lines.Err(); err != nil {
		return nil, fmt.Errorf("error reading host list: %w", err)
	}
	return hosts, nil
}

// HostsFromFile reads a host list from path.
func HostsFromFile(path string) (iter.Seq[string], error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open host list %s: %w", path, err)
	}
	defer file.Close()

	hosts, err := ReadHosts(file)
	if err != nil {
		return nil, err
	}
	return slices.Values(hosts), nil
}
