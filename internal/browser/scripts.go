package browser

import "fmt"

const locateFn = `function __waLocate(q, xpath) {
  if (xpath) {
    return document.evaluate(q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
  }
  return document.querySelector(q);
}`

// script wraps body in an IIFE where el is the element behind sel (may be null).
func script(sel Selector, body string) string {
	return fmt.Sprintf(`(function() {
%s
var el = __waLocate(%s, %t);
%s
})()`, locateFn, jsString(string(sel)), sel.IsXPath(), body)
}

const readTextBody = `if (!el) { return ""; }
return el.textContent || el.innerText || "";`

const visibleBody = `if (!el) { return false; }
var rect = el.getBoundingClientRect();
var style = window.getComputedStyle(el);
return rect.width > 0 && rect.height > 0 && style.visibility !== "hidden" && style.display !== "none";`

const clickBody = `if (!el) { return false; }
el.scrollIntoView({block: "center"});
el.click();
return true;`

const fireEventsBody = `if (!el) { return false; }
el.focus();
["input", "change", "keyup", "keydown"].forEach(function(type) {
  el.dispatchEvent(new Event(type, {bubbles: true, cancelable: true}));
});
el.dispatchEvent(new CompositionEvent("compositionend", {bubbles: true, cancelable: true, data: el.textContent}));
return true;`

func setContentBody(text string) string {
	return fmt.Sprintf(`if (!el) { return false; }
var text = %s;
el.focus();
el.textContent = text;
el.dispatchEvent(new InputEvent("input", {bubbles: true, cancelable: true, inputType: "insertText", data: text}));
el.dispatchEvent(new Event("change", {bubbles: true}));
return true;`, jsString(text))
}

const clearBody = `if (!el) { return false; }
el.focus();
el.textContent = "";
el.dispatchEvent(new InputEvent("input", {bubbles: true, inputType: "deleteContentBackward"}));
return true;`

const (
	disableUnloadScript = `window.onbeforeunload = null;`
	qrRefScript         = `(function() {
  var el = document.querySelector("div[data-ref]");
  return el ? el.getAttribute("data-ref") : "";
})()`
)

func clipboardWriteScript(text string) string {
	return fmt.Sprintf(`navigator.clipboard.writeText(%s).then(function() { return true; })`, jsString(text))
}
