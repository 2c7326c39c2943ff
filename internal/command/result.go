package command

import (
	"strconv"
	"strings"
)

// Kind tags a Result the way pika_command.h's CmdRes::CmdRet does.
type Kind int

const (
	KindNone Kind = iota
	KindOk
	KindSyntaxErr
	KindOutOfRange
	KindWrongNum
	KindErrOther
)

const crlf = "\r\n"

// Result is the tagged (kind, payload) value every executor fills in, plus
// the raw RESP accumulation buffer for commands that build custom replies
// (KindNone). It is both spec.md §4.A's Response Builder and §3's Command
// Result — the original keeps them in one type (CmdRes) and so does this.
type Result struct {
	kind    Kind
	payload string
	buf     strings.Builder
}

// Clear resets the result to its zero state, matching CmdRes::clear().
func (r *Result) Clear() {
	r.kind = KindNone
	r.payload = ""
	r.buf.Reset()
}

// Ok reports whether the result represents success or an unset (None)
// buffer still being accumulated — matches CmdRes::ok().
func (r *Result) Ok() bool {
	return r.kind == KindOk || r.kind == KindNone
}

// SetResult tags the result with kind and an optional short payload, used
// to render WrongNum's command name or ErrOther's message.
func (r *Result) SetResult(kind Kind, payload ...string) {
	r.kind = kind
	if len(payload) > 0 && payload[0] != "" {
		r.payload = payload[0]
	}
}

// AppendBulkLen appends a RESP bulk-string length prefix ("$<n>\r\n").
func (r *Result) AppendBulkLen(n int) { r.appendLen('$', n) }

// AppendArrayLen appends a RESP array length prefix ("*<n>\r\n").
func (r *Result) AppendArrayLen(n int) { r.appendLen('*', n) }

// AppendInteger appends a RESP integer reply (":<n>\r\n").
func (r *Result) AppendInteger(n int) { r.appendLen(':', n) }

func (r *Result) appendLen(prefix byte, n int) {
	r.buf.WriteByte(prefix)
	r.buf.WriteString(strconv.Itoa(n))
	r.buf.WriteString(crlf)
}

// AppendContent appends raw content followed by CRLF, matching
// RedisAppendContent.
func (r *Result) AppendContent(value string) {
	r.buf.WriteString(value)
	r.buf.WriteString(crlf)
}

// Render is a pure function of (kind, payload, buf) producing the final
// RESP bytes, matching CmdRes::message().
func (r *Result) Render() []byte {
	switch r.kind {
	case KindNone:
		return []byte(r.buf.String())
	case KindOk:
		return []byte("+OK" + crlf)
	case KindSyntaxErr:
		return []byte("-ERR syntax error" + crlf)
	case KindOutOfRange:
		return []byte("-ERR value is not an integer or out of range" + crlf)
	case KindWrongNum:
		return []byte("-ERR wrong number of arguments for '" + r.payload + "' command" + crlf)
	case KindErrOther:
		return []byte("-ERR " + r.payload + crlf)
	default:
		return []byte(r.buf.String())
	}
}
