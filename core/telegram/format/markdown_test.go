package format

import "testing"

func TestEscapeMarkdownV1(t *testing.T) {
	got := MD("iphone_13 *pro* [x]")
	want := `iphone\_13 \*pro\* \[x]`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	got, err := EscapeMarkdown("Б/у. 100.50 (new)!", MarkdownV2)
	if err != nil {
		t.Fatalf("escape: %v", err)
	}
	want := `Б/у\. 100\.50 \(new\)\!`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEscapeMarkdownUnknownVersion(t *testing.T) {
	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatal("expected error for version 3")
	}
}

func TestDeref(t *testing.T) {
	n := 87
	if Deref(&n, 0) != 87 {
		t.Fatal("expected pointed value")
	}
	var s *string
	if Deref(s, "—") != "—" {
		t.Fatal("expected default for nil")
	}
}
