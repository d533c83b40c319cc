package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"iter"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"bugscan/config"
	"bugscan/logging"
	"bugscan/output"
	"bugscan/scanner"
)

// Exit codes.
const (
	ExitOK     = 0
	ExitFatal  = 1
	ExitConfig = 2
)

// Run is the main entry point for the scan command. It parses args,
// validates them and runs the scan, writing verdict lines to stdout and
// diagnostics to stderr. It returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.DefaultScan()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitConfig
	}

	fs := flag.NewFlagSet("bugscan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.HostFile, "f", cfg.HostFile, "file with one host per line")
	fs.StringVar(&cfg.CIDR, "c", cfg.CIDR, "CIDR block to expand into hosts (e.g. 192.168.1.0/24)")
	fs.StringVar(&cfg.Mode, "m", cfg.Mode, "scan mode: direct, ping, udp, ssl or ws")
	methods := fs.String("M", strings.Join(cfg.Methods, ","), "comma separated HTTP methods")
	ports := fs.String("p", joinPorts(cfg.Ports), "comma separated ports")
	fs.StringVar(&cfg.Proxy, "P", cfg.Proxy, "proxy (accepted, currently unused)")
	fs.StringVar(&cfg.Output, "o", cfg.Output, "also append verdict lines to this file")
	fs.IntVar(&cfg.Threads, "T", cfg.Threads, "number of concurrent workers")
	fs.BoolVar(&cfg.PingRaw, "ping-raw", cfg.PingRaw, "send ICMP echo over a raw socket instead of running ping (requires root)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose logging")
	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitConfig
	}

	logging.SetDebug(cfg.Verbose)
	logger := logging.Logger()

	cfg.Methods = config.SplitList(*methods)
	parsedPorts, err := config.ParsePorts(*ports)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitConfig
	}
	cfg.Ports = parsedPorts

	mode, err := cfg.Validate()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitConfig
	}

	hosts, err := hostSource(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitFatal
	}

	writers := []io.Writer{stdout}
	if cfg.Output != "" {
		file, err := output.OpenAppend(cfg.Output)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitFatal
		}
		defer file.Close()
		writers = append(writers, file)
	}
	sink := output.NewLineWriter(writers...)

	if cfg.Proxy != "" {
		logger.Warn("proxy is accepted but not applied to any probe", "proxy", cfg.Proxy)
	}

	opts := scanner.Options{Sink: sink, Proxy: cfg.Proxy}
	if cfg.PingRaw {
		opts.Pinger = scanner.RawPinger{Timeout: scanner.DefaultPingTimeout}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	plan := scanner.Plan{
		Hosts:   hosts,
		Ports:   cfg.Ports,
		Methods: cfg.Methods,
		Mode:    mode,
		Threads: cfg.Threads,
	}
	if _, err := scanner.ExecuteScan(ctx, plan, opts); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitFatal
	}

	if err := sink.Err(); err != nil {
		fmt.Fprintf(stderr, "Error: failed to write results: %v\n", err)
		return ExitFatal
	}
	return ExitOK
}

// hostSource picks the host list: a file takes precedence over a CIDR block.
// With neither, the scan runs over zero tasks.
func hostSource(cfg config.Scan) (iter.Seq[string], error) {
	switch {
	case cfg.HostFile != "":
		return scanner.HostsFromFile(cfg.HostFile)
	case cfg.CIDR != "":
		return scanner.HostsFromCIDR(cfg.CIDR)
	default:
		return nil, nil
	}
}

func joinPorts(ports []int) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

// printUsage displays the help message.
func printUsage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "Usage: bugscan [-f hosts.txt | -c 10.0.0.0/24] [-m direct|ping|udp|ssl|ws] [-M head,get] [-p 80,443] [-T 25] [-o out.txt]")
	fmt.Fprintln(out, "       bugscan serve")
	fmt.Fprintln(out, "Example: bugscan -f hosts.txt -p 80,443 -M head,get")
	fmt.Fprintln(out, "Example: bugscan -c 192.168.1.0/24 -m ping -T 50")
	fmt.Fprintln(out, "Example: bugscan -f hosts.txt -m ws -o result/ws.txt")
	fs.PrintDefaults()
}
