package whatsapp

import "testing"

func TestSnapshotIgnoresScripts(t *testing.T) {
	snap, err := ParseSnapshot(page(`<script>var s = "too many messages";</script><div>hello</div>`))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := snap.RateLimitPhrase(); ok {
		t.Error("phrase inside a script must not count")
	}
	if !snap.Contains("hello") {
		t.Error("rendered text missing")
	}
}

func TestSnapshotLoginRequired(t *testing.T) {
	for name, html := range map[string]string{
		"qr canvas": page(`<div data-ref="2@abc"><canvas></canvas></div>`),
		"phrase":    page(`<h1>Steps to log in</h1>`),
	} {
		snap, err := ParseSnapshot(html)
		if err != nil {
			t.Fatal(err)
		}
		if !snap.LoginRequired() {
			t.Errorf("%s: login screen not detected", name)
		}
	}

	snap, _ := ParseSnapshot(page(`<div id="side"></div>`))
	if snap.LoginRequired() {
		t.Error("chat list reported as login screen")
	}
}

func TestSnapshotDeliveryMarkers(t *testing.T) {
	snap, err := ParseSnapshot(page(markers(2) +
		`<span data-icon="msg-dblcheck"></span><span data-icon="msg-time"></span><span data-icon="status-dblcheck"></span>`))
	if err != nil {
		t.Fatal(err)
	}
	if got := snap.DeliveryMarkers(); got != 4 {
		t.Errorf("DeliveryMarkers() = %d, want 4", got)
	}
}

func TestSnapshotNormalizesText(t *testing.T) {
	snap, _ := ParseSnapshot(page("<p>YOU’RE\n   SENDING messages   too quickly</p>"))
	phrase, ok := snap.RateLimitPhrase()
	if !ok || phrase != "you're sending messages too quickly" {
		t.Errorf("RateLimitPhrase() = %q, %v", phrase, ok)
	}
}
