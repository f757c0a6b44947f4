// Command quadtree-server runs the RESP command server described in
// SPEC_FULL.md §11.4/§11.5, grounded on cmd/tile38-server's flag
// parsing, startup banner, and log.Default setup.
package main

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/tidwall/log"
	"github.com/tidwall/qtindex/persist"
	"github.com/tidwall/qtindex/quadtree"
	"github.com/tidwall/qtindex/server"
)

var (
	port        int
	dataFile    string
	verbose     bool
	veryVerbose bool
	quiet       bool
	boundsW     float64
	boundsH     float64
)

// csvCodec persists items as compact "id,x,y,w,h" lines rather than
// pulling in a JSON codec dependency just for this binary — the data
// shape is flat enough that CSV-style encoding is the honest choice.
type csvCodec struct{}

func (csvCodec) Encode(item quadtree.Item) ([]byte, error) {
	it, ok := item.(*server.Item)
	if !ok {
		return nil, fmt.Errorf("unexpected item type in snapshot")
	}
	return []byte(fmt.Sprintf("%s,%g,%g,%g,%g", it.ID, it.Bounds.X, it.Bounds.Y, it.Bounds.Width, it.Bounds.Height)), nil
}

func (csvCodec) Decode(data []byte) (quadtree.Item, error) {
	fields := strings.SplitN(string(data), ",", 5)
	if len(fields) != 5 {
		return nil, fmt.Errorf("malformed snapshot record %q", data)
	}
	var coords [4]float64
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		coords[i] = v
	}
	return &server.Item{ID: fields[0], Bounds: quadtree.Rectangle{
		X: float32(coords[0]), Y: float32(coords[1]),
		Width: float32(coords[2]), Height: float32(coords[3]),
	}}, nil
}

func main() {
	flag.IntVar(&port, "p", 9876, "The listening port.")
	flag.StringVar(&dataFile, "d", "qtindex.db", "The snapshot database file.")
	flag.BoolVar(&verbose, "v", false, "Enable verbose logging.")
	flag.BoolVar(&veryVerbose, "vv", false, "Enable very verbose logging.")
	flag.BoolVar(&quiet, "q", false, "Quiet logging. Totally silent.")
	flag.Float64Var(&boundsW, "w", 1<<20, "Default tree width.")
	flag.Float64Var(&boundsH, "height", 1<<20, "Default tree height.")
	flag.Parse()

	var logw io.Writer = os.Stderr
	if quiet {
		logw = ioutil.Discard
	}
	log.Default = log.New(logw, &log.Config{
		HideDebug: !veryVerbose,
		HideWarn:  !(veryVerbose || verbose),
	})

	fmt.Fprintf(logw, `
   _______ _______
  |   _   |_     _|
  |. |_|  |_|   |_    qtindex-server, port %d
  |.  _   |     |
  |:  |   |     |     region quadtree command server
  |::.|:. |     |
  |:::.|  |_____|
`+"\n", port)

	bounds := quadtree.Rectangle{X: 0, Y: 0, Width: float32(boundsW), Height: float32(boundsH)}
	srv := server.New(bounds)

	if _, err := os.Stat(dataFile); err == nil {
		log.Infof("restoring snapshot from %s", dataFile)
		treeFor := func(name string) (quadtree.Rectangle, quadtree.ShapePolicy) {
			return bounds, quadtree.RectShape{}
		}
		if err := persist.Restore(dataFile, srv.Store(), treeFor, csvCodec{}); err != nil {
			log.Fatal(err)
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Infof("snapshotting to %s before exit", dataFile)
		if err := persist.Snapshot(srv.Store(), dataFile, csvCodec{}); err != nil {
			log.Error(err)
		}
		os.Exit(0)
	}()

	if err := server.ListenAndServe(port, srv); err != nil {
		log.Fatal(err)
	}
}
