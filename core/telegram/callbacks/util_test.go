package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackDataRaw(t *testing.T) {
	key, payload := ParseCallbackData(&tele.Callback{Data: "\fsell|p|7"})
	if key != "sell" {
		t.Fatalf("key = %q, want sell", key)
	}
	if payload != "p|7" {
		t.Fatalf("payload = %q, want p|7", payload)
	}
}

func TestParseCallbackDataUnique(t *testing.T) {
	key, payload := ParseCallbackData(&tele.Callback{Unique: "wiz", Data: "skip"})
	if key != "wiz" || payload != "skip" {
		t.Fatalf("got %q %q", key, payload)
	}
}

func TestParseCallbackDataNoPayload(t *testing.T) {
	key, payload := ParseCallbackData(&tele.Callback{Data: "\fadmin"})
	if key != "admin" || payload != "" {
		t.Fatalf("got %q %q", key, payload)
	}
	if k, p := ParseCallbackData(nil); k != "" || p != "" {
		t.Fatalf("nil callback parsed to %q %q", k, p)
	}
}
