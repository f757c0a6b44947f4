// Package server speaks a small RESP command protocol
// (github.com/tidwall/resp) over many named quadtree.Index trees held in
// a store.Store, grounded on controller/client.go's resp.Reader/Writer
// dial pattern and this file's own accept-loop-per-connection idiom
// (the original's HTTP/WebSocket/Telnet multiplexing isn't reused here —
// this protocol is RESP-only).
package server

import (
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/tidwall/log"
	"github.com/tidwall/qtindex/quadtree"
	"github.com/tidwall/qtindex/store"
	"github.com/tidwall/resp"
)

// Server dispatches commands against a store.Store. Every tree it
// creates on demand uses RectShape and the same default bounding
// rectangle, so ADD accepts both points (w=h=0) and rectangles.
type Server struct {
	store *store.Store
	rect  quadtree.Rectangle
	mu    sync.Mutex
	byID  map[string]map[string]*Item
}

// New creates a Server whose trees default to bounds.
func New(bounds quadtree.Rectangle) *Server {
	return &Server{
		store: store.New(),
		rect:  bounds,
		byID:  make(map[string]map[string]*Item),
	}
}

// Store exposes the underlying registry, mainly so cmd/ binaries can
// snapshot/restore it via the persist package.
func (s *Server) Store() *store.Store { return s.store }

func (s *Server) tree(key string) *quadtree.Index {
	return s.store.GetOrCreate(key, s.rect, quadtree.RectShape{})
}

func (s *Server) track(key string, item *Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[key]
	if !ok {
		m = make(map[string]*Item)
		s.byID[key] = m
	}
	m[item.ID] = item
}

func (s *Server) lookup(key, id string) (*Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.byID[key][id]
	return item, ok
}

func (s *Server) untrack(key, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID[key], id)
}

// ListenAndServe accepts connections on port, handing each to its own
// goroutine, until the listener errors (normally on shutdown).
func ListenAndServe(port int, srv *Server) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	log.Infof("qtindex server listening on port %d", port)
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go handleConn(conn, srv)
	}
}

func handleConn(conn net.Conn, srv *Server) {
	addr := conn.RemoteAddr().String()
	log.Debugf("opened connection: %s", addr)
	defer func() {
		conn.Close()
		log.Debugf("closed connection: %s", addr)
	}()
	rd := resp.NewReader(conn)
	for {
		v, _, err := rd.ReadValue()
		if err != nil {
			if err != io.EOF {
				log.Error(err)
			}
			return
		}
		cmd, err := parseCommand(v)
		if err != nil {
			writeErr(conn, err)
			continue
		}
		if cmd.name == "quit" {
			return
		}
		handler, ok := commands[cmd.name]
		if !ok {
			writeErr(conn, fmt.Errorf("unknown command '%s'", cmd.name))
			continue
		}
		val, err := handler(srv, cmd.args)
		if err != nil {
			writeErr(conn, err)
			continue
		}
		if err := writeValue(conn, val); err != nil {
			log.Error(err)
			return
		}
	}
}

func writeValue(conn net.Conn, v resp.Value) error {
	data, err := v.MarshalRESP()
	if err != nil {
		return err
	}
	_, err = conn.Write(data)
	return err
}

func writeErr(conn net.Conn, err error) {
	if werr := writeValue(conn, resp.ErrorValue(err)); werr != nil {
		log.Error(werr)
	}
}
