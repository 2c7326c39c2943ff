package executor

import (
	"strconv"
	"strings"
	"time"

	"pika/internal/command"
)

// Get implements GET key, matching the teacher's handleGet (nil bulk
// reply for a missing key).
type Get struct{ key string }

func NewGet() Executor { return &Get{} }

func (g *Get) Clear() { g.key = "" }

func (g *Get) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) != 2 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	g.key = argv[1]
	return true
}

func (g *Get) Do(ctx *Context, argv []string, res *command.Result) {
	v, ok := ctx.Store.Get(g.key)
	if !ok {
		res.AppendBulkLen(-1)
		return
	}
	res.AppendBulkLen(len(v))
	res.AppendContent(v)
}

// Set implements SET key value [EX seconds], matching the teacher's
// handleSet/handleSetEx merged into the one form this command surface
// needs.
type Set struct {
	key      string
	value    string
	expireAt *time.Time
}

func NewSet() Executor { return &Set{} }

func (s *Set) Clear() { s.key, s.value, s.expireAt = "", "", nil }

func (s *Set) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) != 3 && len(argv) != 5 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	s.key = argv[1]
	s.value = argv[2]
	if len(argv) == 5 {
		if !strings.EqualFold(argv[3], "ex") {
			res.SetResult(command.KindSyntaxErr)
			return false
		}
		seconds, err := strconv.Atoi(argv[4])
		if err != nil || seconds <= 0 {
			res.SetResult(command.KindErrOther, "invalid expire time in 'set' command")
			return false
		}
		at := time.Now().Add(time.Duration(seconds) * time.Second)
		s.expireAt = &at
	}
	return true
}

func (s *Set) Do(ctx *Context, argv []string, res *command.Result) {
	ctx.Store.Set(s.key, s.value, s.expireAt)
	res.SetResult(command.KindOk)
}

// Del implements DEL key [key ...], returning the count actually removed.
type Del struct{ keys []string }

func NewDel() Executor { return &Del{} }

func (d *Del) Clear() { d.keys = nil }

func (d *Del) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) < 2 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	d.keys = argv[1:]
	return true
}

func (d *Del) Do(ctx *Context, argv []string, res *command.Result) {
	n := 0
	for _, k := range d.keys {
		if ctx.Store.Delete(k) {
			n++
		}
	}
	res.AppendInteger(n)
}

// Exists implements EXISTS key [key ...], counting matches (a repeated
// key counts once per occurrence, matching Redis's EXISTS semantics).
type Exists struct{ keys []string }

func NewExists() Executor { return &Exists{} }

func (e *Exists) Clear() { e.keys = nil }

func (e *Exists) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) < 2 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	e.keys = argv[1:]
	return true
}

func (e *Exists) Do(ctx *Context, argv []string, res *command.Result) {
	n := 0
	for _, k := range e.keys {
		if ctx.Store.Exists(k) {
			n++
		}
	}
	res.AppendInteger(n)
}
