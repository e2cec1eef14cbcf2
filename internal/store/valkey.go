package store

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	runKeyPrefix = "funnel:run:"
	runIndexKey  = "funnel:runs"
	maxIndexSize = 1000
)

// ValkeyOptions holds connection parameters for a Valkey/Redis-compatible server.
type ValkeyOptions struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxRetries   int
	TLS          bool
}

// ValkeyStore persists run records as JSON values in a Valkey/Redis-compatible
// server, with a capped list index for newest-first listing. Connections are
// per-operation; the store itself is stateless and safe for concurrent use.
type ValkeyStore struct {
	opts ValkeyOptions
	ttl  time.Duration
}

// NewValkeyStore connects to the server and pings it to fail fast on bad
// credentials or connectivity. ttl <= 0 stores records without expiry.
func NewValkeyStore(opts ValkeyOptions, ttl time.Duration) (*ValkeyStore, error) {
	if opts.Addr == "" {
		return nil, errors.New("valkey addr is required")
	}
	normaliseValkeyOptions(&opts)
	s := &ValkeyStore{opts: opts, ttl: ttl}

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := s.ping(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ValkeyStore) Put(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return s.withConn(ctx, func(vc *valkeyConn) error {
		args := [][]byte{[]byte(runKeyPrefix + rec.RunID), payload}
		if s.ttl > 0 {
			ms := strconv.FormatInt(s.ttl.Milliseconds(), 10)
			args = append(args, []byte("PX"), []byte(ms))
		}
		if err := vc.writeCommand("SET", args...); err != nil {
			return err
		}
		reply, err := vc.readReply()
		if err != nil {
			return err
		}
		if reply.typ != replySimpleString || string(reply.data) != "OK" {
			return fmt.Errorf("unexpected SET response: %s", reply.data)
		}

		// Keep the index free of duplicates across the running -> terminal
		// transition, newest id at the head, capped in size.
		id := []byte(rec.RunID)
		for _, cmd := range [][][]byte{
			{[]byte("LREM"), []byte(runIndexKey), []byte("0"), id},
			{[]byte("LPUSH"), []byte(runIndexKey), id},
			{[]byte("LTRIM"), []byte(runIndexKey), []byte("0"), []byte(strconv.Itoa(maxIndexSize - 1))},
		} {
			if err := vc.write(cmd...); err != nil {
				return err
			}
			if _, err := vc.readReply(); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *ValkeyStore) Get(ctx context.Context, runID string) (Record, error) {
	var rec Record
	err := s.withConn(ctx, func(vc *valkeyConn) error {
		if err := vc.writeCommand("GET", []byte(runKeyPrefix+runID)); err != nil {
			return err
		}
		reply, err := vc.readReply()
		if err != nil {
			return err
		}
		switch reply.typ {
		case replyNil:
			return ErrNotFound
		case replyBulkString:
			return json.Unmarshal(reply.data, &rec)
		default:
			return fmt.Errorf("unexpected valkey reply type %q for GET", reply.typ)
		}
	})
	return rec, err
}

func (s *ValkeyStore) List(ctx context.Context, limit int) ([]Record, error) {
	stop := "-1"
	if limit > 0 {
		stop = strconv.Itoa(limit - 1)
	}

	var records []Record
	err := s.withConn(ctx, func(vc *valkeyConn) error {
		if err := vc.writeCommand("LRANGE", []byte(runIndexKey), []byte("0"), []byte(stop)); err != nil {
			return err
		}
		reply, err := vc.readReply()
		if err != nil {
			return err
		}
		if reply.typ != replyArray {
			return fmt.Errorf("unexpected valkey reply type %q for LRANGE", reply.typ)
		}

		records = records[:0]
		for _, id := range reply.elems {
			if err := vc.writeCommand("GET", []byte(runKeyPrefix+string(id))); err != nil {
				return err
			}
			item, err := vc.readReply()
			if err != nil {
				return err
			}
			if item.typ != replyBulkString {
				// Expired record still referenced by the index; skip it.
				continue
			}
			var rec Record
			if err := json.Unmarshal(item.data, &rec); err != nil {
				continue
			}
			records = append(records, rec)
		}
		return nil
	})
	return records, err
}

func (s *ValkeyStore) Close() error { return nil }

func (s *ValkeyStore) ping(ctx context.Context) error {
	return s.withConn(ctx, func(vc *valkeyConn) error {
		if err := vc.writeCommand("PING"); err != nil {
			return err
		}
		reply, err := vc.readReply()
		if err != nil {
			return err
		}
		if reply.typ != replySimpleString || string(reply.data) != "PONG" {
			return fmt.Errorf("unexpected PING response: %s", reply.data)
		}
		return nil
	})
}

func (s *ValkeyStore) withConn(ctx context.Context, fn func(*valkeyConn) error) error {
	var lastErr error
	retries := s.opts.MaxRetries
	if retries <= 0 {
		retries = 1
	}
	for attempt := 0; attempt < retries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		vc, err := s.dial(ctx)
		if err != nil {
			lastErr = err
			if retryableNetErr(err) && attempt < retries-1 {
				time.Sleep(valkeyBackoff(attempt))
				continue
			}
			return err
		}

		if err := s.bootstrap(vc); err != nil {
			vc.close()
			lastErr = err
			if retryableNetErr(err) && attempt < retries-1 {
				time.Sleep(valkeyBackoff(attempt))
				continue
			}
			return err
		}

		err = fn(vc)
		vc.close()
		if err == nil {
			return nil
		}
		lastErr = err
		if retryableNetErr(err) && attempt < retries-1 {
			time.Sleep(valkeyBackoff(attempt))
			continue
		}
		return err
	}
	return lastErr
}

func (s *ValkeyStore) dial(ctx context.Context) (*valkeyConn, error) {
	dialer := net.Dialer{Timeout: dialDeadline(ctx, s.opts.DialTimeout)}
	var (
		conn net.Conn
		err  error
	)
	if s.opts.TLS {
		host := hostForTLS(s.opts.Addr)
		tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
		conn, err = tls.DialWithDialer(&dialer, "tcp", s.opts.Addr, tlsCfg)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", s.opts.Addr)
	}
	if err != nil {
		return nil, err
	}
	return &valkeyConn{
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
		opts:   s.opts,
	}, nil
}

func (s *ValkeyStore) bootstrap(vc *valkeyConn) error {
	if s.opts.Password != "" {
		cmd := []string{"AUTH"}
		if s.opts.Username != "" {
			cmd = append(cmd, s.opts.Username, s.opts.Password)
		} else {
			cmd = append(cmd, s.opts.Password)
		}
		if err := vc.writeStrings(cmd...); err != nil {
			return err
		}
		reply, err := vc.readReply()
		if err != nil {
			return err
		}
		if reply.typ != replySimpleString || !strings.EqualFold(string(reply.data), "OK") {
			return fmt.Errorf("auth failed: %s", reply.data)
		}
	}
	if s.opts.DB > 0 {
		if err := vc.writeCommand("SELECT", []byte(strconv.Itoa(s.opts.DB))); err != nil {
			return err
		}
		reply, err := vc.readReply()
		if err != nil {
			return err
		}
		if reply.typ != replySimpleString || !strings.EqualFold(string(reply.data), "OK") {
			return fmt.Errorf("select failed: %s", reply.data)
		}
	}
	return nil
}

// replyType enumerates the subset of RESP types the store understands.
type replyType string

const (
	replySimpleString replyType = "+"
	replyBulkString   replyType = "$"
	replyInteger      replyType = ":"
	replyArray        replyType = "*"
	replyNil          replyType = "_"
)

type respReply struct {
	typ   replyType
	data  []byte
	elems [][]byte
}

// valkeyConn wraps a network connection with RESP helpers.
type valkeyConn struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	opts   ValkeyOptions
}

func (vc *valkeyConn) close() {
	_ = vc.conn.Close()
}

func (vc *valkeyConn) writeCommand(command string, args ...[]byte) error {
	parts := make([][]byte, 0, len(args)+1)
	parts = append(parts, []byte(command))
	parts = append(parts, args...)
	return vc.write(parts...)
}

func (vc *valkeyConn) writeStrings(parts ...string) error {
	chunks := make([][]byte, 0, len(parts))
	for _, p := range parts {
		chunks = append(chunks, []byte(p))
	}
	return vc.write(chunks...)
}

func (vc *valkeyConn) write(parts ...[]byte) error {
	if err := vc.conn.SetWriteDeadline(time.Now().Add(vc.opts.WriteTimeout)); err != nil {
		return err
	}
	if _, err := vc.writer.WriteString(fmt.Sprintf("*%d\r\n", len(parts))); err != nil {
		return err
	}
	for _, part := range parts {
		if _, err := vc.writer.WriteString(fmt.Sprintf("$%d\r\n", len(part))); err != nil {
			return err
		}
		if _, err := vc.writer.Write(part); err != nil {
			return err
		}
		if _, err := vc.writer.WriteString("\r\n"); err != nil {
			return err
		}
	}
	return vc.writer.Flush()
}

func (vc *valkeyConn) readReply() (respReply, error) {
	if err := vc.conn.SetReadDeadline(time.Now().Add(vc.opts.ReadTimeout)); err != nil {
		return respReply{}, err
	}
	return vc.readValue()
}

func (vc *valkeyConn) readValue() (respReply, error) {
	prefix, err := vc.reader.ReadByte()
	if err != nil {
		return respReply{}, err
	}
	switch prefix {
	case '+':
		line, err := vc.readLine()
		return respReply{typ: replySimpleString, data: line}, err
	case '-':
		line, err := vc.readLine()
		if err != nil {
			return respReply{}, err
		}
		return respReply{}, errors.New(string(line))
	case ':':
		line, err := vc.readLine()
		return respReply{typ: replyInteger, data: line}, err
	case '$':
		line, err := vc.readLine()
		if err != nil {
			return respReply{}, err
		}
		size, err := strconv.Atoi(string(line))
		if err != nil {
			return respReply{}, err
		}
		if size == -1 {
			return respReply{typ: replyNil}, nil
		}
		buf := make([]byte, size)
		if err := readFull(vc.reader, buf); err != nil {
			return respReply{}, err
		}
		if err := vc.expectCRLF(); err != nil {
			return respReply{}, err
		}
		return respReply{typ: replyBulkString, data: buf}, nil
	case '*':
		line, err := vc.readLine()
		if err != nil {
			return respReply{}, err
		}
		count, err := strconv.Atoi(string(line))
		if err != nil {
			return respReply{}, err
		}
		if count == -1 {
			return respReply{typ: replyNil}, nil
		}
		elems := make([][]byte, 0, count)
		for i := 0; i < count; i++ {
			elem, err := vc.readValue()
			if err != nil {
				return respReply{}, err
			}
			elems = append(elems, elem.data)
		}
		return respReply{typ: replyArray, elems: elems}, nil
	default:
		return respReply{}, fmt.Errorf("unexpected RESP prefix %q", prefix)
	}
}

func (vc *valkeyConn) readLine() ([]byte, error) {
	line, err := vc.reader.ReadString('\n')
	if err != nil {
		return nil, err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return []byte(line), nil
}

func (vc *valkeyConn) expectCRLF() error {
	b1, err := vc.reader.ReadByte()
	if err != nil {
		return err
	}
	b2, err := vc.reader.ReadByte()
	if err != nil {
		return err
	}
	if b1 != '\r' || b2 != '\n' {
		return fmt.Errorf("invalid line termination")
	}
	return nil
}

func normaliseValkeyOptions(opts *ValkeyOptions) {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 2 * time.Second
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 2 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 2 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
}

func dialDeadline(ctx context.Context, d time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return time.Millisecond
		}
		if d == 0 || remaining < d {
			return remaining
		}
	}
	if d <= 0 {
		return time.Millisecond
	}
	return d
}

func valkeyBackoff(attempt int) time.Duration {
	base := 25 * time.Millisecond
	return time.Duration(1<<attempt) * base
}

func retryableNetErr(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func hostForTLS(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func readFull(r *bufio.Reader, buf []byte) error {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return err
		}
	}
	return nil
}
