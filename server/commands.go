package server

import (
	"fmt"
	"strconv"

	"github.com/tidwall/cast"
	"github.com/tidwall/gjson"
	"github.com/tidwall/qtindex/quadtree"
	"github.com/tidwall/resp"
)

// command is a parsed RESP request: a lowercased name plus its
// remaining argument values, mirroring the (name, vs []resp.Value)
// shape controller command handlers take (controller/search.go,
// controller/crud.go).
type command struct {
	name string
	args []resp.Value
}

func parseCommand(v resp.Value) (command, error) {
	arr := v.Array()
	if len(arr) == 0 {
		return command{}, fmt.Errorf("empty command")
	}
	return command{name: arr[0].String(), args: arr[1:]}, nil
}

func argFloat(v resp.Value) (float32, error) {
	f, err := strconv.ParseFloat(v.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number '%s'", v.String())
	}
	return float32(f), nil
}

// intValue encodes an integer reply as a RESP bulk string, the same way
// controller/crud.go encodes every numeric field (resp.StringValue over
// strconv.FormatFloat) rather than relying on a dedicated integer type.
func intValue(n int) resp.Value {
	return resp.StringValue(strconv.Itoa(n))
}

type handlerFunc func(srv *Server, args []resp.Value) (resp.Value, error)

var commands = map[string]handlerFunc{
	"add":     cmdAdd,
	"remove":  cmdRemove,
	"move":    cmdMove,
	"search":  cmdSearch,
	"bulkadd": cmdBulkAdd,
	"stats":   cmdStats,
	"drop":    cmdDrop,
	"ping":    cmdPing,
}

func cmdPing(srv *Server, args []resp.Value) (resp.Value, error) {
	return resp.StringValue("PONG"), nil
}

// cmdAdd implements ADD key id x y [w h].
func cmdAdd(srv *Server, args []resp.Value) (resp.Value, error) {
	if len(args) != 4 && len(args) != 6 {
		return resp.Value{}, fmt.Errorf("wrong number of arguments for 'add'")
	}
	key, id := args[0].String(), args[1].String()
	x, err := argFloat(args[2])
	if err != nil {
		return resp.Value{}, err
	}
	y, err := argFloat(args[3])
	if err != nil {
		return resp.Value{}, err
	}
	var w, h float32
	if len(args) == 6 {
		if w, err = argFloat(args[4]); err != nil {
			return resp.Value{}, err
		}
		if h, err = argFloat(args[5]); err != nil {
			return resp.Value{}, err
		}
	}
	item := &Item{ID: id, Bounds: quadtree.Rectangle{X: x, Y: y, Width: w, Height: h}}
	ix := srv.tree(key)
	if old, ok := srv.lookup(key, id); ok {
		ix.Remove(old)
	}
	if err := ix.Add(item); err != nil {
		return resp.Value{}, err
	}
	srv.track(key, item)
	return resp.StringValue("OK"), nil
}

// cmdRemove implements REMOVE key id.
func cmdRemove(srv *Server, args []resp.Value) (resp.Value, error) {
	if len(args) != 2 {
		return resp.Value{}, fmt.Errorf("wrong number of arguments for 'remove'")
	}
	key, id := args[0].String(), args[1].String()
	item, ok := srv.lookup(key, id)
	if !ok {
		return intValue(0), nil
	}
	ix := srv.tree(key)
	removed := ix.Remove(item)
	srv.untrack(key, id)
	if removed {
		return intValue(1), nil
	}
	return intValue(0), nil
}

// cmdMove implements MOVE key id x y [w h].
func cmdMove(srv *Server, args []resp.Value) (resp.Value, error) {
	if len(args) != 4 && len(args) != 6 {
		return resp.Value{}, fmt.Errorf("wrong number of arguments for 'move'")
	}
	key, id := args[0].String(), args[1].String()
	item, ok := srv.lookup(key, id)
	if !ok {
		return intValue(0), nil
	}
	x, err := argFloat(args[2])
	if err != nil {
		return resp.Value{}, err
	}
	y, err := argFloat(args[3])
	if err != nil {
		return resp.Value{}, err
	}
	item.Bounds.X, item.Bounds.Y = x, y
	if len(args) == 6 {
		w, err := argFloat(args[4])
		if err != nil {
			return resp.Value{}, err
		}
		h, err := argFloat(args[5])
		if err != nil {
			return resp.Value{}, err
		}
		item.Bounds.Width, item.Bounds.Height = w, h
	}
	ix := srv.tree(key)
	if !ix.Move(item) {
		return intValue(0), nil
	}
	return intValue(1), nil
}

// cmdSearch implements SEARCH key x y w h [COUNT|LIST].
func cmdSearch(srv *Server, args []resp.Value) (resp.Value, error) {
	if len(args) != 5 && len(args) != 6 {
		return resp.Value{}, fmt.Errorf("wrong number of arguments for 'search'")
	}
	key := args[0].String()
	x, err := argFloat(args[1])
	if err != nil {
		return resp.Value{}, err
	}
	y, err := argFloat(args[2])
	if err != nil {
		return resp.Value{}, err
	}
	w, err := argFloat(args[3])
	if err != nil {
		return resp.Value{}, err
	}
	h, err := argFloat(args[4])
	if err != nil {
		return resp.Value{}, err
	}
	mode := "list"
	if len(args) == 6 {
		mode = args[5].String()
	}
	ix := srv.tree(key)
	q := quadtree.NewRectQuery(x, y, w, h)
	switch mode {
	case "count", "COUNT":
		return intValue(ix.QueryCount(q)), nil
	default:
		items := ix.Query(q, nil)
		vals := make([]resp.Value, 0, len(items))
		for _, it := range items {
			ti, ok := it.(*Item)
			if !ok {
				continue
			}
			vals = append(vals, resp.ArrayValue([]resp.Value{
				resp.StringValue(ti.ID),
				resp.FloatValue(float64(ti.Bounds.X)),
				resp.FloatValue(float64(ti.Bounds.Y)),
				resp.FloatValue(float64(ti.Bounds.Width)),
				resp.FloatValue(float64(ti.Bounds.Height)),
			}))
		}
		return resp.ArrayValue(vals), nil
	}
}

// cmdBulkAdd implements BULKADD key json, where json is an array of
// {"id":...,"x":...,"y":...,"w":...,"h":...} objects, parsed with
// tidwall/gjson the way controller/json.go reads request bodies.
func cmdBulkAdd(srv *Server, args []resp.Value) (resp.Value, error) {
	if len(args) != 2 {
		return resp.Value{}, fmt.Errorf("wrong number of arguments for 'bulkadd'")
	}
	key := args[0].String()
	// zero-copy string->[]byte, same trick controller/json.go uses before
	// handing a RESP payload to a parser that wants bytes.
	parsed := gjson.ParseBytes(cast.ToBytes(args[1].String()))
	if !parsed.IsArray() {
		return resp.Value{}, fmt.Errorf("bulkadd payload must be a json array")
	}
	var items []quadtree.Item
	var tracked []*Item
	var parseErr error
	parsed.ForEach(func(_, elem gjson.Result) bool {
		id := elem.Get("id").String()
		if id == "" {
			parseErr = fmt.Errorf("bulkadd element missing 'id'")
			return false
		}
		ti := &Item{ID: id, Bounds: quadtree.Rectangle{
			X:      float32(elem.Get("x").Float()),
			Y:      float32(elem.Get("y").Float()),
			Width:  float32(elem.Get("w").Float()),
			Height: float32(elem.Get("h").Float()),
		}}
		items = append(items, ti)
		tracked = append(tracked, ti)
		return true
	})
	if parseErr != nil {
		return resp.Value{}, parseErr
	}
	ix := srv.tree(key)
	if err := ix.AddBulk(items, 2); err != nil {
		return resp.Value{}, err
	}
	for _, ti := range tracked {
		srv.track(key, ti)
	}
	return intValue(len(items)), nil
}

// cmdStats implements STATS key.
func cmdStats(srv *Server, args []resp.Value) (resp.Value, error) {
	if len(args) != 1 {
		return resp.Value{}, fmt.Errorf("wrong number of arguments for 'stats'")
	}
	key := args[0].String()
	ix, ok := srv.store.Get(key)
	if !ok {
		return resp.NullValue(), nil
	}
	internal, leaf := ix.TreeStats()
	return resp.ArrayValue([]resp.Value{
		resp.StringValue("count"), intValue(ix.Count()),
		resp.StringValue("internal_nodes"), intValue(internal),
		resp.StringValue("leaf_nodes"), intValue(leaf),
	}), nil
}

// cmdDrop implements DROP key.
func cmdDrop(srv *Server, args []resp.Value) (resp.Value, error) {
	if len(args) != 1 {
		return resp.Value{}, fmt.Errorf("wrong number of arguments for 'drop'")
	}
	key := args[0].String()
	srv.mu.Lock()
	delete(srv.byID, key)
	srv.mu.Unlock()
	if srv.store.Drop(key) {
		return intValue(1), nil
	}
	return intValue(0), nil
}
