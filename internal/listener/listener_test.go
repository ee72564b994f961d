package listener

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/callerid/internal/event"
	"github.com/starford/callerid/internal/testutil"
)

type sinkRecorder struct {
	mu   sync.Mutex
	got  []event.Event
	fail error
}

func (s *sinkRecorder) Submit(ev event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.got = append(s.got, ev)
	return nil
}

func ringing() event.CallStateChanged {
	n := "0811"
	return event.CallStateChanged{State: event.CallRinging, IncomingNumber: &n}
}

func TestMissing(t *testing.T) {
	if m := Missing(Required); len(m) != 0 {
		t.Errorf("all granted, missing = %v", m)
	}
	m := Missing([]Permission{ReadSMS, ReceiveSMS})
	if len(m) != 3 || m[0] != ReadPhoneState {
		t.Errorf("missing = %v", m)
	}
}

func TestParsePermissions(t *testing.T) {
	got := ParsePermissions([]string{"android.permission.READ_SMS", " receive_sms ", ""})
	if len(got) != 2 || got[0] != ReadSMS || got[1] != ReceiveSMS {
		t.Errorf("parsed = %v", got)
	}
}

func TestRegistry_NoEventsWithoutAllPermissions(t *testing.T) {
	sink := &sinkRecorder{}
	r := NewRegistry(sink, testutil.DiscardLogger())

	if r.Apply([]Permission{ReadSMS, ReceiveSMS, ReadPhoneState, ReadCallLog}) {
		t.Fatal("Apply should fail with READ_CONTACTS missing")
	}
	if err := r.Deliver(ringing()); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Deliver err = %v, want ErrNotRegistered", err)
	}
	if len(sink.got) != 0 {
		t.Error("no event should reach the sink")
	}
}

func TestRegistry_DeliversWhenGranted(t *testing.T) {
	sink := &sinkRecorder{}
	r := NewRegistry(sink, testutil.DiscardLogger())

	if !r.Apply(Required) {
		t.Fatal("Apply with all permissions should register")
	}
	if err := r.Deliver(ringing()); err != nil {
		t.Fatal(err)
	}
	if err := r.Deliver(event.SMSReceived{}); err != nil {
		t.Fatal(err)
	}
	if len(sink.got) != 2 {
		t.Errorf("delivered = %d, want 2", len(sink.got))
	}
}

func TestRegistry_SinkErrorPropagates(t *testing.T) {
	boom := errors.New("queue full")
	r := NewRegistry(&sinkRecorder{fail: boom}, testutil.DiscardLogger())
	r.Apply(Required)
	if err := r.Deliver(ringing()); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestRegistry_WarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(&sinkRecorder{}, slog.New(slog.NewJSONHandler(&buf, nil)))
	r.Apply(nil)
	r.Apply(nil)
	r.Apply([]Permission{ReadSMS})
	if n := strings.Count(buf.String(), "permissions are required"); n != 1 {
		t.Errorf("warning logged %d times, want 1", n)
	}
}

func TestRegistry_RevokeUnregisters(t *testing.T) {
	r := NewRegistry(&sinkRecorder{}, testutil.DiscardLogger())
	r.Apply(Required)
	r.Apply([]Permission{ReadSMS})
	if r.Registered() {
		t.Error("listeners should be unregistered after revoke")
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry(&sinkRecorder{}, testutil.DiscardLogger())
	if err := r.Unregister(); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("unregister before register err = %v", err)
	}
	r.Apply(Required)
	if err := r.Unregister(); err != nil {
		t.Errorf("unregister err = %v", err)
	}
	if r.Registered() {
		t.Error("still registered")
	}
}

func TestLoadGrants(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grants.yaml")

	got, err := LoadGrants(path)
	if err != nil || got != nil {
		t.Fatalf("missing file = %v, %v", got, err)
	}

	_ = os.WriteFile(path, []byte("granted:\n  - READ_SMS\n  - android.permission.READ_CONTACTS\n"), 0o644)
	got, err = LoadGrants(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1] != ReadContacts {
		t.Errorf("grants = %v", got)
	}

	_ = os.WriteFile(path, []byte("granted: [unclosed"), 0o644)
	if _, err := LoadGrants(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestWatchGrants_RegistersAfterGrant(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grants.yaml")
	r := NewRegistry(&sinkRecorder{}, testutil.DiscardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go WatchGrants(ctx, path, testutil.DiscardLogger(), func(granted []Permission) { r.Apply(granted) })

	time.Sleep(100 * time.Millisecond)
	content := "granted:\n"
	for _, p := range Required {
		content += "  - " + string(p) + "\n"
	}
	_ = os.WriteFile(path, []byte(content), 0o644)

	deadline := time.Now().Add(5 * time.Second)
	for !r.Registered() && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if !r.Registered() {
		t.Error("listeners not registered after grants file written")
	}
}
