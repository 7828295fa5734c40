package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"UpkeepSentinel/internal/model"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestMoney(t *testing.T) {
	cases := map[int64]string{
		0:       "$0",
		352500:  "$352,500",
		1057500: "$1,057,500",
	}
	for in, want := range cases {
		if got := Money(in); got != want {
			t.Errorf("Money(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatStatus(t *testing.T) {
	st := model.AccountingState{
		Today:      model.NewDay(2024, time.March, 4),
		Owed:       1057500,
		IsSelfTurn: false,
		Override:   model.OverrideCounterparty,
	}
	s := model.Settings{Counterparty: "Bob", DailyCost: 352500}
	out := FormatStatus(st, s)
	for _, want := range []string{"$1,057,500", "Bob's", "pinned: counterparty", "Last payment: never", "/key"} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %q:\n%s", want, out)
		}
	}
}

func TestFormatReminder(t *testing.T) {
	st := model.AccountingState{Owed: 705000, IsSelfTurn: true, EffectiveLastPayment: model.NewDay(2024, time.March, 2)}
	out := FormatReminder(st, time.Date(2024, time.March, 4, 22, 0, 0, 0, time.UTC))
	if !strings.Contains(out, "$705,000") || !strings.Contains(out, "22:00") || !strings.Contains(out, "2024-03-02") {
		t.Errorf("unexpected reminder:\n%s", out)
	}
}

func TestTelegramSend(t *testing.T) {
	var got map[string]string
	tg := &TelegramNotifier{
		BotToken: "tok",
		ChatID:   "42",
		APIBase:  "https://telegram.test",
		Client: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Path != "/bottok/sendMessage" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			_ = json.NewDecoder(r.Body).Decode(&got)
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(`{"ok":true}`))}, nil
		})},
	}
	if err := tg.Send(context.Background(), "hi"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["chat_id"] != "42" || got["text"] != "hi" {
		t.Errorf("unexpected payload %v", got)
	}
}

func TestTelegramSendErrorStatus(t *testing.T) {
	tg := &TelegramNotifier{
		BotToken: "tok",
		ChatID:   "42",
		APIBase:  "https://telegram.test",
		Client: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusBadRequest, Body: io.NopCloser(strings.NewReader(`bad`))}, nil
		})},
	}
	if err := tg.Send(context.Background(), "hi"); err == nil {
		t.Fatal("expected error for 400")
	}
}

func TestPermitted(t *testing.T) {
	if (&TelegramNotifier{BotToken: "x"}).Permitted() {
		t.Error("notifier without chat id should not be permitted")
	}
	var nilTG *TelegramNotifier
	if nilTG.Permitted() {
		t.Error("nil notifier should not be permitted")
	}
}

type failingSink struct{ calls int }

func (f *failingSink) Notify(context.Context, string) error { f.calls++; return errors.New("down") }
func (f *failingSink) Permitted() bool                       { return true }
func (f *failingSink) Name() string                          { return "failing" }

func TestDispatcherFallsBack(t *testing.T) {
	var buf bytes.Buffer
	primary := &failingSink{}
	d := &Dispatcher{Primary: primary, Fallback: &StatusWriter{W: &buf}}

	channel, err := d.Deliver(context.Background(), "<b>Owed</b> $10")
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if channel != "status" || primary.calls != 1 {
		t.Errorf("channel=%s calls=%d", channel, primary.calls)
	}
	if !strings.Contains(buf.String(), "Owed $10") || strings.Contains(buf.String(), "<b>") {
		t.Errorf("status line not stripped: %q", buf.String())
	}
}

func TestDispatcherSkipsUnpermittedPrimary(t *testing.T) {
	var buf bytes.Buffer
	d := &Dispatcher{Primary: &TelegramNotifier{}, Fallback: &StatusWriter{W: &buf}}
	channel, err := d.Deliver(context.Background(), "x")
	if err != nil || channel != "status" {
		t.Fatalf("channel=%s err=%v", channel, err)
	}
}

func TestRedactCommand(t *testing.T) {
	if got := redactCommand("/key abc123"); strings.Contains(got, "abc123") {
		t.Errorf("key leaked: %q", got)
	}
	if got := redactCommand("/status"); got != "/status" {
		t.Errorf("got %q", got)
	}
}

func TestFormattersEscapeFreeText(t *testing.T) {
	st := model.AccountingState{Today: model.NewDay(2024, time.March, 4), Owed: 100}
	out := FormatStatus(st, model.Settings{Counterparty: "Tom & <Jerry>", DailyCost: 100})
	if strings.Contains(out, "Tom & <Jerry>") || !strings.Contains(out, "Tom &amp; &lt;Jerry&gt;") {
		t.Errorf("counterparty not escaped:\n%s", out)
	}

	fetchErr := errors.New("status 502, body: <html><body>Bad gateway</body></html>")
	out = FormatFetchProblem(fetchErr, st)
	if strings.Contains(out, "<html>") || !strings.Contains(out, "&lt;html&gt;") {
		t.Errorf("fetch error not escaped:\n%s", out)
	}
	if out := FormatCredentialProblem(errors.New("bad <key>")); strings.Contains(out, "<key>") {
		t.Errorf("credential error not escaped:\n%s", out)
	}
	if out := FormatError(errors.New(`unknown turn override "<b>"`)); strings.Contains(out, "<b>") {
		t.Errorf("command error not escaped: %s", out)
	}

	// The status fallback shows the original text.
	if got := PlainText(FormatFetchProblem(fetchErr, st)); !strings.Contains(got, "<html><body>Bad gateway") {
		t.Errorf("PlainText did not unescape: %q", got)
	}
}
