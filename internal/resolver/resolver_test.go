package resolver

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/starford/callerid/internal/contactservice"
	"github.com/starford/callerid/internal/event"
	"github.com/starford/callerid/internal/notify"
	"github.com/starford/callerid/internal/testutil"
)

type recorder struct {
	got []notify.Notification
}

func (r *recorder) Notify(_ context.Context, n notify.Notification) error {
	r.got = append(r.got, n)
	return nil
}

func testResolver(t *testing.T, opts ...Option) (*Resolver, *contactservice.Service, *recorder) {
	t.Helper()
	svc := contactservice.NewService(testutil.TestDB(t))
	rec := &recorder{}
	return New(svc, rec, opts...), svc, rec
}

func strPtr(s string) *string { return &s }

func TestSMSFromKnownContact(t *testing.T) {
	r, svc, rec := testResolver(t)
	ctx := context.Background()
	if _, err := svc.Add(ctx, "Budi", "081234567890", ""); err != nil {
		t.Fatal(err)
	}

	ev := event.SMSReceived{
		Format:             event.FormatText,
		OriginatingAddress: "+6281234567890",
		Fragments:          [][]byte{[]byte("Halo")},
	}
	if err := r.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(rec.got) != 1 {
		t.Fatalf("notifications = %d, want 1", len(rec.got))
	}
	n := rec.got[0]
	if !strings.Contains(n.Title, "Budi") {
		t.Errorf("title = %q, want it to contain Budi", n.Title)
	}
	if n.Body != "Halo" {
		t.Errorf("body = %q, want Halo", n.Body)
	}
	if n.Number != "+6281234567890" {
		t.Errorf("callback number = %q, want raw number", n.Number)
	}
	if n.ContactID == nil {
		t.Error("contact id missing")
	}
	if n.OpenURL != "/api/contacts?number=%2B6281234567890" {
		t.Errorf("open url = %q", n.OpenURL)
	}
	if n.ID == "" || n.Kind != "sms" {
		t.Errorf("notification = %+v", n)
	}
}

func TestSMSFromPDU(t *testing.T) {
	r, svc, rec := testResolver(t)
	ctx := context.Background()
	_, _ = svc.Add(ctx, "Budi", "081234567890", "")

	raw, _ := hex.DecodeString("00040D91261832547698F000006201412143650004C830FB0D")
	if err := r.HandleEvent(ctx, event.SMSReceived{Format: event.Format3GPP, Fragments: [][]byte{raw}}); err != nil {
		t.Fatal(err)
	}
	if len(rec.got) != 1 || rec.got[0].Title != "Message from Budi" || rec.got[0].Body != "Halo" {
		t.Errorf("notifications = %+v", rec.got)
	}
}

func TestRingingCallUnknownNumber(t *testing.T) {
	r, _, rec := testResolver(t)

	ev := event.CallStateChanged{State: event.CallRinging, IncomingNumber: strPtr("0299999999")}
	if err := r.HandleEvent(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	if len(rec.got) != 1 {
		t.Fatalf("notifications = %d, want 1", len(rec.got))
	}
	n := rec.got[0]
	if n.DisplayName != "0299999999" {
		t.Errorf("display name = %q", n.DisplayName)
	}
	if n.Title != "Incoming call" || n.Body != "From: 0299999999" {
		t.Errorf("notification = %+v", n)
	}
	if n.ContactID != nil {
		t.Errorf("unexpected contact id %d", *n.ContactID)
	}
}

func TestUnknownNumberShowsRawNotNormalized(t *testing.T) {
	r, _, _ := testResolver(t)
	n, err := r.Resolve(context.Background(), event.CallStateChanged{State: event.CallRinging, IncomingNumber: strPtr("+62 299-999")})
	if err != nil {
		t.Fatal(err)
	}
	if n.DisplayName != "+62 299-999" {
		t.Errorf("display name = %q, want raw", n.DisplayName)
	}
}

func TestNonRingingCallStatesIgnored(t *testing.T) {
	r, _, rec := testResolver(t)
	ctx := context.Background()
	for _, ev := range []event.CallStateChanged{
		{State: event.CallIdle, IncomingNumber: strPtr("0811")},
		{State: event.CallOffhook},
		{State: event.CallRinging},
	} {
		if err := r.HandleEvent(ctx, ev); err != nil {
			t.Errorf("HandleEvent(%+v): %v", ev, err)
		}
	}
	if len(rec.got) != 0 {
		t.Errorf("notifications = %+v, want none", rec.got)
	}
}

func TestMalformedSMSProducesNoNotification(t *testing.T) {
	r, _, rec := testResolver(t)
	err := r.HandleEvent(context.Background(), event.SMSReceived{Format: event.Format3GPP, Fragments: [][]byte{{0x00, 0x04}}})
	if !errors.Is(err, event.ErrMalformedPayload) {
		t.Errorf("err = %v, want ErrMalformedPayload", err)
	}
	if len(rec.got) != 0 {
		t.Error("malformed event must not notify")
	}
}

func TestStorageFailureProducesNoNotification(t *testing.T) {
	db := testutil.TestDB(t)
	rec := &recorder{}
	r := New(contactservice.NewService(db), rec)
	db.Close()

	err := r.HandleEvent(context.Background(), event.CallStateChanged{State: event.CallRinging, IncomingNumber: strPtr("0811")})
	if err == nil {
		t.Fatal("expected lookup error")
	}
	if len(rec.got) != 0 {
		t.Error("failed lookup must not notify")
	}
}

func TestIndonesianCatalog(t *testing.T) {
	m, err := Catalog(LocaleIndonesian)
	if err != nil {
		t.Fatal(err)
	}
	r, svc, rec := testResolver(t, WithMessages(m), WithLinkBase("/ui"))
	ctx := context.Background()
	_, _ = svc.Add(ctx, "Budi", "081234567890", "")

	_ = r.HandleEvent(ctx, event.CallStateChanged{State: event.CallRinging, IncomingNumber: strPtr("6281234567890")})
	_ = r.HandleEvent(ctx, event.SMSReceived{Format: event.FormatText, OriginatingAddress: "081234567890", Fragments: [][]byte{[]byte("Halo")}})
	if len(rec.got) != 2 {
		t.Fatalf("notifications = %d", len(rec.got))
	}
	if rec.got[0].Title != "Panggilan Masuk" || rec.got[0].Body != "Dari: Budi" {
		t.Errorf("call = %+v", rec.got[0])
	}
	if rec.got[1].Title != "Pesan dari Budi" {
		t.Errorf("sms title = %q", rec.got[1].Title)
	}
	if !strings.HasPrefix(rec.got[0].OpenURL, "/ui?number=") {
		t.Errorf("open url = %q", rec.got[0].OpenURL)
	}
}

func TestCatalogUnknownLocale(t *testing.T) {
	if _, err := Catalog("fr"); err == nil {
		t.Error("expected error for unknown locale")
	}
}
