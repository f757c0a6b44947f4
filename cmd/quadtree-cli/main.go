// Command quadtree-cli is an interactive REPL against a running
// quadtree-server, grounded on cmd/tile38-cli's liner-based prompt/
// history/completion loop and controller/client.go's resp dial pattern
// for the connection itself.
package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/tidwall/resp"
)

func userHomeDir() string {
	if runtime.GOOS == "windows" {
		home := os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
		if home == "" {
			home = os.Getenv("USERPROFILE")
		}
		return home
	}
	return os.Getenv("HOME")
}

var historyFile = filepath.Join(userHomeDir(), ".qtindex_cli_history")

var (
	hostname   = "127.0.0.1"
	port       = 9876
	oneCommand string
)

var knownCommands = []string{"ADD", "REMOVE", "MOVE", "SEARCH", "BULKADD", "STATS", "DROP", "PING", "QUIT"}

func refusedErrorString(addr string) string {
	return fmt.Sprintf("Could not connect to quadtree-server at %s: Connection refused", addr)
}

// conn wraps a RESP dial the way controller/client.go's Conn does.
type conn struct {
	c  net.Conn
	rd *resp.Reader
	wr *resp.Writer
}

func dial(addr string) (*conn, error) {
	c, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return &conn{c: c, rd: resp.NewReader(c), wr: resp.NewWriter(c)}, nil
}

func (cn *conn) do(args ...string) (resp.Value, error) {
	vals := make([]interface{}, len(args)-1)
	for i, a := range args[1:] {
		vals[i] = a
	}
	if err := cn.wr.WriteMultiBulk(args[0], vals...); err != nil {
		return resp.Value{}, err
	}
	v, _, err := cn.rd.ReadValue()
	return v, err
}

func (cn *conn) Close() error { return cn.c.Close() }

func showHelp() {
	fmt.Fprintf(os.Stdout, "qtindex-cli\n\nUsage: qtindex-cli [OPTIONS] [cmd [arg [arg ...]]]\n")
	fmt.Fprintf(os.Stdout, " -h <hostname>      Server hostname (default: %s).\n", hostname)
	fmt.Fprintf(os.Stdout, " -p <port>          Server port (default: %d).\n", port)
}

func parseArgs() bool {
	args := os.Args[1:]
	for len(args) > 0 {
		arg := args[0]
		args = args[1:]
		if arg == "--help" {
			showHelp()
			return false
		}
		if !strings.HasPrefix(arg, "-") {
			args = append([]string{arg}, args...)
			break
		}
		switch arg {
		case "-h":
			if len(args) == 0 {
				showHelp()
				return false
			}
			hostname = args[0]
			args = args[1:]
		case "-p":
			if len(args) == 0 {
				showHelp()
				return false
			}
			n, err := strconv.ParseUint(args[0], 10, 16)
			if err != nil {
				showHelp()
				return false
			}
			port = int(n)
			args = args[1:]
		default:
			fmt.Fprintf(os.Stderr, "Unrecognized option: '%s'\n", arg)
			showHelp()
			return false
		}
	}
	oneCommand = strings.Join(args, " ")
	return true
}

func main() {
	if !parseArgs() {
		return
	}

	addr := fmt.Sprintf("%s:%d", hostname, port)
	cn, err := dial(addr)
	if err != nil {
		if _, ok := err.(net.Error); ok {
			fmt.Fprintln(os.Stderr, refusedErrorString(addr))
		} else {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		return
	}
	defer cn.Close()

	line := liner.NewLiner()
	defer line.Close()

	sorted := append([]string(nil), knownCommands...)
	sort.Strings(sorted)
	line.SetMultiLineMode(false)
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(l string) (c []string) {
		for _, n := range sorted {
			if strings.HasPrefix(strings.ToUpper(n), strings.ToUpper(l)) {
				c = append(c, n)
			}
		}
		return
	})
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		var input string
		if oneCommand == "" {
			input, err = line.Prompt(addr + "> ")
		} else {
			input = oneCommand
		}
		if err != nil {
			if err == liner.ErrPromptAborted {
				return
			}
			fmt.Fprintf(os.Stderr, "Error reading line: %s\n", err.Error())
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if oneCommand == "" {
			line.AppendHistory(input)
		}
		if strings.EqualFold(input, "quit") || strings.EqualFold(input, "exit") {
			return
		}
		fields := strings.Fields(input)
		v, err := cn.do(fields...)
		if err != nil {
			if err != io.EOF {
				fmt.Fprintln(os.Stderr, err.Error())
			} else {
				fmt.Fprintln(os.Stderr, refusedErrorString(addr))
			}
			return
		}
		fmt.Fprintln(os.Stdout, v.String())
		if oneCommand != "" {
			return
		}
	}
}
