package strategy

import (
	"encoding/json"
	"fmt"

	"github.com/hyperifyio/goresolve/internal/extract"
)

// containerSelectors lists the content containers the in-page routines look
// for, most specific first.
func containerSelectors(extra []string) []string {
	return append([]string{"article", "main", "[role=main]"}, extra...)
}

func jsList(items []string) string {
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// probeScript reports whether a content container exists and how much text
// the page currently shows.
func probeScript(selectors []string) string {
	return fmt.Sprintf(`(() => {
  const sels = %s;
  const found = sels.some(s => { try { return !!document.querySelector(s); } catch (e) { return false; } });
  const text = document.body ? (document.body.innerText || "") : "";
  return { container: found, textLength: text.trim().length };
})()`, jsList(containerSelectors(selectors)))
}

// snapshotScript picks the best content root, strips noise from the live DOM
// and returns the root and the whole body, each as markup and visible text.
// Noise is matched on whole id/class tokens like the static extractor, and
// <body> or any element containing the root is never removed.
func snapshotScript(selectors []string) string {
	tags, roles, tokens := extract.NoiseVocabulary()
	return fmt.Sprintf(`(() => {
  const noiseTags = new Set(%s);
  const noiseRoles = new Set(%s);
  const noiseTokens = new Set(%s);
  const order = %s;
  let root = null;
  for (const sel of order) {
    try { root = document.querySelector(sel); } catch (e) { root = null; }
    if (root) break;
  }
  const body = document.body;
  const isNoise = el => {
    if (noiseTags.has(el.tagName.toLowerCase())) return true;
    if (noiseRoles.has((el.getAttribute("role") || "").toLowerCase())) return true;
    if (el.getAttribute("aria-modal") === "true") return true;
    const words = ((el.id || "") + " " + (el.getAttribute("class") || "")).toLowerCase().split(/[^a-z0-9]+/);
    return words.some(w => noiseTokens.has(w));
  };
  if (body) {
    for (const el of Array.from(body.querySelectorAll("*"))) {
      if (!el.isConnected || (root && el.contains(root))) continue;
      if (isNoise(el)) el.remove();
    }
  }
  if (!root) root = body;
  return {
    url: location.href,
    title: document.title || "",
    rootHTML: root ? root.outerHTML : "",
    rootText: root ? (root.innerText || "") : "",
    bodyHTML: body ? body.outerHTML : "",
    bodyText: body ? (body.innerText || "") : ""
  };
})()`, jsList(tags), jsList(roles), jsList(tokens), jsList(containerSelectors(selectors)))
}

// searchLinkScript returns the first same-host link under one of prefixes,
// or an empty string.
func searchLinkScript(prefixes []string) string {
	return fmt.Sprintf(`(() => {
  const prefixes = %s;
  for (const a of document.querySelectorAll("a[href]")) {
    let u;
    try { u = new URL(a.getAttribute("href"), location.href); } catch (e) { continue; }
    if (u.host !== location.host) continue;
    if (prefixes.some(p => u.pathname.startsWith(p) && u.pathname.length > p.length)) return u.href;
  }
  return "";
})()`, jsList(prefixes))
}

type probeResult struct {
	Container  bool `json:"container"`
	TextLength int  `json:"textLength"`
}

type snapshot struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	RootHTML string `json:"rootHTML"`
	RootText string `json:"rootText"`
	BodyHTML string `json:"bodyHTML"`
	BodyText string `json:"bodyText"`
}
