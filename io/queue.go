// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package io

import (
	"io"
	"sync"
)

// Queue is a byte FIFO used as interactive console input. Reading an
// empty queue returns ErrWouldBlock until the queue is closed, after
// which it returns io.EOF. A Queue is safe for concurrent use.
type Queue struct {
	mutex  sync.Mutex
	data   []byte
	closed bool
}

var _ io.ReadWriteCloser = (*Queue)(nil)

// Write appends p to the queue.
func (q *Queue) Write(p []byte) (n int, err error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.closed {
		err = ErrClosed
		return
	}

	q.data = append(q.data, p...)
	n = len(p)
	return
}

// Read removes up to len(p) bytes from the front of the queue.
func (q *Queue) Read(p []byte) (n int, err error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if len(q.data) == 0 {
		if q.closed {
			err = io.EOF
		} else if len(p) != 0 {
			err = ErrWouldBlock
		}
		return
	}

	n = copy(p, q.data)
	q.data = q.data[n:]
	if len(q.data) == 0 {
		q.data = nil
	}
	return
}

// Close marks the end of input. Queued data can still be read.
func (q *Queue) Close() (err error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.closed = true
	return
}

// Len returns the number of queued bytes.
func (q *Queue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return len(q.data)
}
