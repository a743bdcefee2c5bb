package x11

import (
	"testing"

	"github.com/1broseidon/virtdisplay/internal/host"
)

type fakePresenter struct {
	assigned  bool
	presented int
}

func (f *fakePresenter) Present(host.SwapChainHandle, []byte, int) error {
	f.presented++
	return nil
}

func (f *fakePresenter) SwapChainFor(uint32) (host.SwapChainHandle, bool) {
	if !f.assigned {
		return "", false
	}
	return "chain", true
}

func TestGrabAndPresent_SkipsWhenNoSwapChain(t *testing.T) {
	fp := &fakePresenter{}
	c := NewCapture(nil, fp, 1, 0, nil)

	if err := c.grabAndPresent(); err != nil {
		t.Fatalf("grabAndPresent: %v", err)
	}
	if fp.presented != 0 {
		t.Fatalf("presented %d frames with no swap chain", fp.presented)
	}
}

func TestHashFrame_DistinguishesContent(t *testing.T) {
	a := hashFrame([]byte{1, 2, 3, 4})
	b := hashFrame([]byte{1, 2, 3, 5})
	if a == b {
		t.Fatal("different frames hashed equal")
	}
	if a != hashFrame([]byte{1, 2, 3, 4}) {
		t.Fatal("identical frames hashed differently")
	}
}
