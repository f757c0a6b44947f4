// Command quadtree-benchmark load-tests a running quadtree-server,
// grounded on cmd/tile38-benchmark's flag parsing and
// github.com/tidwall/redbench.Bench harness.
package main

import (
	"fmt"
	"math/rand"
	"net"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tidwall/redbench"
)

var (
	hostname = "127.0.0.1"
	port     = 9876
	clients  = 50
	requests = 100000
	quiet    = false
	pipeline = 1
	csv      = false
	tests    = "PING,ADD,SEARCH"
)

var addr string

func showHelp() bool {
	fmt.Fprintf(os.Stdout, "qtindex-benchmark\n\n")
	fmt.Fprintf(os.Stdout, "Usage: qtindex-benchmark [-h <host>] [-p <port>] [-c <clients>] [-n <requests>]\n")
	fmt.Fprintf(os.Stdout, " -h <hostname>      Server hostname (default: %s)\n", hostname)
	fmt.Fprintf(os.Stdout, " -p <port>          Server port (default: %d)\n", port)
	fmt.Fprintf(os.Stdout, " -c <clients>       Number of parallel connections (default %d)\n", clients)
	fmt.Fprintf(os.Stdout, " -n <requests>      Total number of requests (default %d)\n", requests)
	fmt.Fprintf(os.Stdout, " -q                 Quiet. Just show query/sec values\n")
	fmt.Fprintf(os.Stdout, " -P <numreq>        Pipeline <numreq> requests. Default 1 (no pipeline).\n")
	fmt.Fprintf(os.Stdout, " -t <tests>         Only run the comma separated list of tests.\n")
	fmt.Fprintf(os.Stdout, " --csv              Output in CSV format.\n")
	return false
}

func parseArgs() bool {
	defer func() {
		if v := recover(); v != nil {
			if v, ok := v.(string); ok && v == "bad arg" {
				showHelp()
			}
		}
	}()

	args := os.Args[1:]
	readArg := func(arg string) string {
		if len(args) == 0 {
			panic("bad arg")
		}
		narg := args[0]
		args = args[1:]
		return narg
	}
	readIntArg := func(arg string) int {
		n, err := strconv.ParseUint(readArg(arg), 10, 64)
		if err != nil {
			panic("bad arg")
		}
		return int(n)
	}
	badArg := func(arg string) bool {
		fmt.Fprintf(os.Stderr, "Unrecognized option or bad number of args for: '%s'\n", arg)
		return false
	}

	for len(args) > 0 {
		arg := readArg("")
		if arg == "--help" || arg == "-?" {
			return showHelp()
		}
		if !strings.HasPrefix(arg, "-") {
			args = append([]string{arg}, args...)
			break
		}
		switch arg {
		default:
			return badArg(arg)
		case "-h":
			hostname = readArg(arg)
		case "-p":
			port = readIntArg(arg)
		case "-c":
			clients = readIntArg(arg)
			if clients <= 0 {
				clients = 1
			}
		case "-n":
			requests = readIntArg(arg)
			if requests <= 0 {
				requests = 0
			}
		case "-q":
			quiet = true
		case "-P":
			pipeline = readIntArg(arg)
			if pipeline <= 0 {
				pipeline = 1
			}
		case "-t":
			tests = readArg(arg)
		case "--csv":
			csv = true
		}
	}
	return true
}

func fillOpts() *redbench.Options {
	opts := *redbench.DefaultOptions
	opts.CSV = csv
	opts.Clients = clients
	opts.Pipeline = pipeline
	opts.Quiet = quiet
	opts.Requests = requests
	opts.Stderr = os.Stderr
	opts.Stdout = os.Stdout
	return &opts
}

func prepFn(conn net.Conn) bool { return true }

func randPoint() (x, y float64) {
	return rand.Float64() * (1 << 20), rand.Float64() * (1 << 20)
}

func main() {
	rand.Seed(time.Now().UnixNano())
	if !parseArgs() {
		return
	}
	addr = fmt.Sprintf("%s:%d", hostname, port)
	for _, test := range strings.Split(tests, ",") {
		switch strings.ToUpper(strings.TrimSpace(test)) {
		case "PING":
			redbench.Bench("PING", addr, fillOpts(), prepFn,
				func(buf []byte) []byte {
					return redbench.AppendCommand(buf, "PING")
				},
			)
		case "ADD":
			var i int64
			redbench.Bench("ADD (point)", addr, fillOpts(), prepFn,
				func(buf []byte) []byte {
					n := atomic.AddInt64(&i, 1)
					x, y := randPoint()
					return redbench.AppendCommand(buf, "ADD", "key:bench", "id:"+strconv.FormatInt(n, 10),
						strconv.FormatFloat(x, 'f', 3, 64),
						strconv.FormatFloat(y, 'f', 3, 64),
					)
				},
			)
		case "SEARCH":
			redbench.Bench("SEARCH (1000x1000 box)", addr, fillOpts(), prepFn,
				func(buf []byte) []byte {
					x, y := randPoint()
					return redbench.AppendCommand(buf, "SEARCH", "key:bench",
						strconv.FormatFloat(x, 'f', 3, 64),
						strconv.FormatFloat(y, 'f', 3, 64),
						"1000", "1000", "COUNT",
					)
				},
			)
		case "STATS":
			redbench.Bench("STATS", addr, fillOpts(), prepFn,
				func(buf []byte) []byte {
					return redbench.AppendCommand(buf, "STATS", "key:bench")
				},
			)
		}
	}
}
