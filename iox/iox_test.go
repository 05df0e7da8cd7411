package iox

import (
	"errors"
	"testing"
)

type failingCloser struct{ closed bool }

func (f *failingCloser) Close() error {
	f.closed = true
	return errors.New("close failed")
}

func TestDiscardClose(t *testing.T) {
	f := &failingCloser{}
	DiscardClose(f)
	if !f.closed {
		t.Fatal("DiscardClose did not close")
	}
}

func TestDiscardErr(t *testing.T) {
	ran := false
	DiscardErr(func() error {
		ran = true
		return errors.New("flush failed")
	})
	if !ran {
		t.Fatal("DiscardErr did not run fn")
	}
}
