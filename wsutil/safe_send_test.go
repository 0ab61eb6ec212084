package wsutil

import "testing"

func TestSafeSend(t *testing.T) {
	ch := make(chan []byte, 1)
	if !SafeSend(ch, []byte("a")) {
		t.Fatal("expected send on a free buffer")
	}
	if SafeSend(ch, []byte("b")) {
		t.Error("expected a full buffer to drop the message")
	}
	if got := string(<-ch); got != "a" {
		t.Errorf("expected a, got %q", got)
	}

	close(ch)
	if SafeSend(ch, []byte("c")) {
		t.Error("send on a closed channel must report false")
	}
}
