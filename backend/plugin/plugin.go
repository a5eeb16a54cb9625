// Package plugin implements a backend.Backend that delegates every
// operation to a child process over a length-prefixed BSON request/
// response protocol (spec.md §6 "Plugin wire protocol"). The dispatch loop
// is grounded on the teacher's internal/ctlsocksrv accept/serve loop
// (length-framed messages, one request in flight at a time), with JSON
// swapped for BSON and a Unix socket swapped for the child's stdin/stdout
// pipes.
package plugin

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/drobin/nutsgo/backend"
	"github.com/drobin/nutsgo/internal/tlog"
)

// Options configures the child process.
type Options struct {
	// Path is the plugin executable.
	Path string
	// Args are extra arguments passed to the plugin.
	Args []string
	// BlockSize is requested of the plugin on the initial "block_size"
	// call's args, for plugins that create a fresh container.
	BlockSize uint32
}

// Backend drives one child process for the lifetime of the container.
type Backend struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	blockSize uint32
	headerID  backend.BlockID
}

// New starts the plugin process and queries its block size and header id.
func New(opts Options) (*Backend, error) {
	cmd := exec.Command(opts.Path, opts.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("plugin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("plugin: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("plugin: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("plugin: failed to start %s: %w", opts.Path, err)
	}
	go forwardLog(stderr)

	b := &Backend{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}

	size, err := b.call("block_size", bson.M{"requested": opts.BlockSize})
	if err != nil {
		return nil, err
	}
	var sizeReply struct {
		BlockSize uint32 `bson:"block_size"`
	}
	if err := size.Unmarshal(&sizeReply); err != nil {
		return nil, fmt.Errorf("plugin: malformed block_size reply: %w", err)
	}
	b.blockSize = sizeReply.BlockSize

	hdr, err := b.call("header_id", bson.M{})
	if err != nil {
		return nil, err
	}
	var hdrReply struct {
		ID []byte `bson:"id"`
	}
	if err := hdr.Unmarshal(&hdrReply); err != nil {
		return nil, fmt.Errorf("plugin: malformed header_id reply: %w", err)
	}
	b.headerID = backend.NewBlockID(hdrReply.ID)

	return b, nil
}

// forwardLog copies the child's stderr to tlog. By convention the child
// prefixes lines "nuts-log-<level>: "; lines starting with
// "nuts-log-fatal:" go to tlog.Fatal, "nuts-log-warn:" to tlog.Warn, and
// every other line to tlog.Debug. The line itself is passed on unchanged.
func forwardLog(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "nuts-log-fatal:") {
			tlog.Fatal.Println(line)
		} else if strings.HasPrefix(line, "nuts-log-warn:") {
			tlog.Warn.Println(line)
		} else {
			tlog.Debug.Println(line)
		}
	}
}

// Close terminates the child process.
func (b *Backend) Close() error {
	b.stdin.Close()
	return b.cmd.Wait()
}

func (b *Backend) BlockSize() uint32 { return b.blockSize }

func (b *Backend) HeaderID() backend.BlockID { return b.headerID }

func (b *Backend) Info() map[string]string {
	reply, err := b.call("info", bson.M{})
	out := map[string]string{"kind": "plugin"}
	if err != nil {
		out["error"] = err.Error()
		return out
	}
	var m map[string]string
	if err := reply.Unmarshal(&m); err == nil {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func (b *Backend) Acquire() (backend.BlockID, error) {
	reply, err := b.call("acquire", bson.M{})
	if err != nil {
		return backend.BlockID{}, err
	}
	var r struct {
		ID []byte `bson:"id"`
	}
	if err := reply.Unmarshal(&r); err != nil {
		return backend.BlockID{}, fmt.Errorf("plugin: malformed acquire reply: %w", err)
	}
	id := backend.NewBlockID(r.ID)
	tlog.Debug.Printf("plugin: acquired %s", id)
	return id, nil
}

func (b *Backend) Release(id backend.BlockID) error {
	_, err := b.call("release", bson.M{"id": id.Bytes()})
	return err
}

func (b *Backend) Read(id backend.BlockID, buf []byte) (int, error) {
	reply, err := b.call("read", bson.M{"id": id.Bytes()})
	if err != nil {
		return 0, err
	}
	var r struct {
		Data []byte `bson:"data"`
	}
	if err := reply.Unmarshal(&r); err != nil {
		return 0, fmt.Errorf("plugin: malformed read reply: %w", err)
	}
	n := copy(buf, r.Data)
	return n, nil
}

func (b *Backend) Write(id backend.BlockID, buf []byte) (int, error) {
	data := make([]byte, b.blockSize)
	copy(data, buf[:b.blockSize])
	_, err := b.call("write", bson.M{"id": id.Bytes(), "data": data})
	if err != nil {
		return 0, err
	}
	return int(b.blockSize), nil
}

// errReply mirrors the `{"err": {"kind": ..., "msg": ...}}` envelope.
type errReply struct {
	Kind string `bson:"kind"`
	Msg  string `bson:"msg"`
}

func (e errReply) Error() string {
	return fmt.Sprintf("plugin: %s: %s", e.Kind, e.Msg)
}

// call sends {"op": op, "args": args} and returns the "ok" document, or an
// errReply if the child responded with "err".
func (b *Backend) call(op string, args bson.M) (bson.Raw, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	req, err := bson.Marshal(bson.M{"op": op, "args": args})
	if err != nil {
		return nil, fmt.Errorf("plugin: encoding request: %w", err)
	}
	if err := writeFramed(b.stdin, req); err != nil {
		return nil, fmt.Errorf("plugin: writing request: %w", err)
	}

	respBytes, err := readFramed(b.stdout)
	if err != nil {
		return nil, fmt.Errorf("plugin: reading response: %w", err)
	}

	var envelope struct {
		OK  bson.Raw `bson:"ok"`
		Err *errReply `bson:"err"`
	}
	if err := bson.Unmarshal(respBytes, &envelope); err != nil {
		return nil, fmt.Errorf("plugin: decoding response: %w", err)
	}
	if envelope.Err != nil {
		return nil, *envelope.Err
	}
	return envelope.OK, nil
}

func writeFramed(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFramed(r *bufio.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
