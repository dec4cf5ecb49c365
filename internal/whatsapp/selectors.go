package whatsapp

import (
	"time"

	"whatsapp-broadcaster/internal/browser"
)

// WhatsApp Web ships without notice and renames attributes often. Each
// target lists its strategies newest UI first; update these when sends break.

var ComposeBox = Target{
	Name:      "message input box",
	State:     browser.Clickable,
	FirstWait: 30 * time.Second,
	Strategies: []Strategy{
		{"compose data-tab=10", `//footer//div[@contenteditable="true"][@data-tab="10"]`},
		{"any data-tab=10", `//div[@contenteditable="true"][@data-tab="10"]`},
		{"textbox titled Type a message", `//div[@contenteditable="true"][@role="textbox"][@title="Type a message"]`},
		{"lexical editor in footer", `//footer//div[@contenteditable="true"][@data-lexical-editor="true"]`},
		{"copyable-text editor", `//div[contains(@class, "copyable-text")]//div[@contenteditable="true"]`},
	},
}

var AttachButton = Target{
	Name:      "attach button",
	State:     browser.Clickable,
	FirstWait: 10 * time.Second,
	Strategies: []Strategy{
		{"div aria-label=Attach", `//div[@aria-label="Attach"]`},
		{"button aria-label=Attach", `//button[@aria-label="Attach"]`},
		{"plus-rounded icon", `//*[@data-icon="plus-rounded"]`},
		{"attach-menu-plus icon", `//span[@data-icon="attach-menu-plus"]`},
		{"legacy clip icon", `//span[@data-icon="clip"]`},
		{"title=Attach", `//*[@title="Attach"]`},
	},
}

// MediaInput is the hidden file input behind "Photos & videos".
var MediaInput = Target{
	Name:      "media file input",
	State:     browser.Present,
	FirstWait: 10 * time.Second,
	Strategies: []Strategy{
		{"accept image/video", `//input[@accept="image/*,video/mp4,video/3gpp,video/quicktime"]`},
		{"accept contains image", `input[type="file"][accept*="image"]`},
		{"first file input", `(//input[@type="file"])[1]`},
	},
}

var DocumentMenuItem = Target{
	Name:      "document menu item",
	State:     browser.Clickable,
	FirstWait: 10 * time.Second,
	Strategies: []Strategy{
		{"document icon", `//span[@data-icon="document"]`},
		{"document-filled icon", `//span[@data-icon="document-filled"]`},
		{"menu item text Document", `//li[.//span[text()="Document"]]`},
		{"button text Document", `//div[@role="button"][.//span[text()="Document"]]`},
	},
}

var DocumentInput = Target{
	Name:      "document file input",
	State:     browser.Present,
	FirstWait: 10 * time.Second,
	Strategies: []Strategy{
		{"accept any", `//input[@type="file"][@accept="*"]`},
		{"last file input", `(//input[@type="file"])[last()]`},
	},
}

// CaptionBox lives inside the media preview overlay, which carries its own
// data-tab=10 editor on top of the chat's.
var CaptionBox = Target{
	Name:      "caption box",
	State:     browser.Clickable,
	FirstWait: 10 * time.Second,
	Strategies: []Strategy{
		{"editor inside preview footer", `//div[contains(@class, "x1hx0egp")]//div[@contenteditable="true"][@data-tab="10"]`},
		{"placeholder Add a caption", `//div[@contenteditable="true"][@aria-placeholder="Add a caption"]`},
		{"textbox data-tab=10", `//div[@role="textbox"][@contenteditable="true"][@data-tab="10"]`},
		{"last data-tab=10 editor", `(//div[@contenteditable="true"][@data-tab="10"])[last()]`},
	},
}

var SendButton = Target{
	Name:      "send button",
	State:     browser.Clickable,
	FirstWait: 10 * time.Second,
	Strategies: []Strategy{
		{"div aria-label=Send", `//div[@aria-label="Send"]`},
		{"wds-ic-send-filled icon", `//span[@data-icon="wds-ic-send-filled"]/parent::*`},
		{"legacy send icon", `//span[@data-icon="send"]/parent::*`},
		{"button aria-label=Send", `//button[@aria-label="Send"]`},
	},
}

const (
	previewOverlay browser.Selector = `//div[@data-animate-modal-popup="true"]`
	uploadProgress browser.Selector = `//*[contains(@class, "progress") or contains(@aria-label, "upload") or contains(@aria-label, "loading")]`

	invalidNumberPhrase = "phone number shared via url is invalid"
)

// deliveryMarkers are the status icons WhatsApp renders on outgoing messages:
// pending clock, sent, delivered, read.
const deliveryMarkers = `span[data-icon="msg-time"], span[data-icon="msg-check"], span[data-icon="msg-dblcheck"], span[data-icon="msg-dblcheck-ack"]`

var rateLimitPhrases = []string{
	"too many messages",
	"slow down",
	"you're sending messages too quickly",
	"temporarily banned",
	"account restricted",
	"detected automated",
	"unusual activity",
}

// dialogErrorPhrases only count inside dialogs and alerts; page-wide they
// match ordinary chat text.
var dialogErrorPhrases = []string{
	"couldn't send",
	"too large",
	"not supported",
	"try again",
	"failed",
	"error",
}

var loginPhrases = []string{
	"scan the qr code",
	"scan this qr code",
	"steps to log in",
}
