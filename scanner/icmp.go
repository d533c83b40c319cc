package scanner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// RawPinger sends ICMPv4 echo requests over a raw socket. It needs
// CAP_NET_RAW or root.
type RawPinger struct {
	Timeout time.Duration
}

var icmpSeq atomic.Uint32

var errNoIPv4 = errors.New("no IPv4 address for host")

// Ping implements Pinger.
func (r RawPinger) Ping(ctx context.Context, host string) (bool, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dst, err := resolveIPv4(ctx, host)
	if err != nil {
		return false, err
	}

	conn, err := net.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return false, fmt.Errorf("open icmp socket: %w", err)
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	_ = conn.SetDeadline(deadline)

	id := uint16(os.Getpid() & 0xffff)
	seq := uint16(icmpSeq.Add(1))
	packet, err := buildEchoRequest(id, seq, []byte("bugscan"))
	if err != nil {
		return false, err
	}
	if _, err := conn.WriteTo(packet, &net.IPAddr{IP: dst}); err != nil {
		return false, fmt.Errorf("send echo: %w", err)
	}

	buffer := make([]byte, 1500)
	for {
		n, from, err := conn.ReadFrom(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return false, nil
			}
			return false, err
		}
		addr, ok := from.(*net.IPAddr)
		if !ok || !addr.IP.Equal(dst) {
			continue
		}
		if isEchoReply(buffer[:n], id, seq) {
			return true, nil
		}
	}
}

func resolveIPv4(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4, nil
		}
		return nil, errNoIPv4
	}
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, errNoIPv4
	}
	return ips[0].To4(), nil
}

// buildEchoRequest serializes an ICMPv4 echo request with checksum.
func buildEchoRequest(id, seq uint16, payload []byte) ([]byte, error) {
	icmp := &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0),
		Id:       id,
		Seq:      seq,
	}
	buffer := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buffer, opts, icmp, gopacket.Payload(payload)); err != nil {
		return nil, fmt.Errorf("serialize echo: %w", err)
	}
	return buffer.Bytes(), nil
}

// isEchoReply reports whether data is an ICMPv4 echo reply for id/seq.
func isEchoReply(data []byte, id, seq uint16) bool {
	packet := gopacket.NewPacket(data, layers.LayerTypeICMPv4, gopacket.Default)
	icmp, ok := packet.Layer(layers.LayerTypeICMPv4).(*layers.ICMPv4)
	if !ok {
		return false
	}
	return icmp.TypeCode.Type() == layers.ICMPv4TypeEchoReply && icmp.Id == id && icmp.Seq == seq
}
