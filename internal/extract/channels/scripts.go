package channels

// Extraction-pass page scripts. Each returns a JSON payload parsed into the
// typed structs in extractor.go; the classification and filtering logic
// stays on the Go side where it can be unit-tested.

// scriptStaticAnchors enumerates every anchor with its rendered visibility
// so honeypot links (display:none, zero height, opacity 0) can be dropped.
const scriptStaticAnchors = `() => {
	const out = [];
	for (const a of document.querySelectorAll('a[href]')) {
		let href = '';
		try { href = a.href || a.getAttribute('href') || ''; } catch (e) { continue; }
		if (!href) continue;
		const style = getComputedStyle(a);
		const rect = a.getBoundingClientRect();
		const visible = style.display !== 'none' &&
			style.visibility !== 'hidden' &&
			parseFloat(style.opacity || '1') > 0 &&
			rect.height > 0;
		out.push({ href: href, text: (a.innerText || '').trim().slice(0, 120), visible: visible });
	}
	return out;
}`

// scriptIframes lists iframe sources with the enclosing section's text, so
// Google-Maps embeds can be paired with nearby phone numbers.
const scriptIframes = `() => {
	const out = [];
	for (const f of document.querySelectorAll('iframe[src]')) {
		let section = f.closest('section, article, div, footer') || f.parentElement;
		let text = '';
		if (section) text = (section.innerText || '').slice(0, 500);
		out.push({ src: f.src, sectionText: text });
	}
	return out;
}`

// scriptOnclickWindowOpen scans onclick attributes for literal
// window.open('...') targets.
const scriptOnclickWindowOpen = `() => {
	const out = [];
	const re = /window\.open\(\s*['"]([^'"]+)['"]/;
	for (const el of document.querySelectorAll('[onclick]')) {
		const m = re.exec(el.getAttribute('onclick') || '');
		if (m) out.push(m[1]);
	}
	return out;
}`

// scriptWidgetGlobals detects in-page chat widget SDKs by their well-known
// globals.
const scriptWidgetGlobals = `() => {
	const found = [];
	try { if (window.Kakao && window.Kakao.Channel) found.push('Kakao.Channel'); } catch (e) {}
	const names = ['ChannelIO', 'tawk_chat', 'Tawk_API', 'zE', 'Intercom', 'drift', 'HubSpotConversations', 'fcWidget'];
	for (const n of names) {
		try { if (window[n]) found.push(n); } catch (e) {}
	}
	try { if (window.Crisp || (window.$crisp && window.$crisp.push)) found.push('Crisp.chat'); } catch (e) {}
	return found;
}`

// scriptShadowAnchors walks every element's shadow root and collects its
// anchors.
const scriptShadowAnchors = `() => {
	const out = [];
	const walk = (root) => {
		for (const el of root.querySelectorAll('*')) {
			if (el.shadowRoot) {
				for (const a of el.shadowRoot.querySelectorAll('a[href]')) {
					out.push(a.href);
				}
				walk(el.shadowRoot);
			}
		}
	};
	walk(document);
	return out;
}`

// scriptWindowOpenIntercept wraps window.open, suppresses real navigation
// with a capture-phase click handler, clicks consultation-looking buttons,
// then restores both hooks and returns the captured targets.
const scriptWindowOpenIntercept = `() => new Promise(resolve => {
	const captured = [];
	const original = window.open;
	window.open = (url) => { if (url) captured.push(String(url)); return null; };
	const blocker = (e) => { e.preventDefault(); e.stopPropagation(); };
	document.addEventListener('click', blocker, true);

	const pattern = /상담|문의|채팅|톡|consultation|chat/i;
	const targets = [];
	for (const el of document.querySelectorAll('button, [role=button], a')) {
		const t = (el.innerText || '').trim();
		if (t && t.length < 30 && pattern.test(t)) targets.push(el);
		if (targets.length >= 10) break;
	}

	let i = 0;
	const clickNext = () => {
		if (i >= targets.length) {
			document.removeEventListener('click', blocker, true);
			window.open = original;
			resolve(captured);
			return;
		}
		try { targets[i].click(); } catch (e) {}
		i++;
		setTimeout(clickNext, 150);
	};
	clickNext();
})`

// scriptFixedAnchors enumerates anchors inside fixed/sticky containers,
// which only materialize after scrolling.
const scriptFixedAnchors = `() => {
	window.dispatchEvent(new Event('scroll'));
	const out = [];
	for (const el of document.querySelectorAll('*')) {
		const style = getComputedStyle(el);
		if (style.position !== 'fixed' && style.position !== 'sticky') continue;
		for (const a of el.querySelectorAll('a[href]')) {
			out.push(a.href);
		}
		if (el.tagName === 'A') {
			out.push(el.href);
		}
	}
	return out;
}`

// scriptImages collects image metadata for the QR pass.
const scriptImages = `() => {
	const out = [];
	for (const img of document.querySelectorAll('img[src]')) {
		out.push({
			src: img.src,
			alt: img.getAttribute('alt') || '',
			cls: img.getAttribute('class') || '',
			parentText: img.parentElement ? (img.parentElement.innerText || '').slice(0, 200) : ''
		});
	}
	return out;
}`

// scriptRedirectCandidates collects internal anchors with their surrounding
// text, recursing one level into same-origin iframe documents.
const scriptRedirectCandidates = `() => {
	const out = [];
	const collect = (doc) => {
		for (const a of doc.querySelectorAll('a[href]')) {
			let href = '';
			try { href = a.href || a.getAttribute('href') || ''; } catch (e) { continue; }
			if (!href) continue;
			const context = a.parentElement ? (a.parentElement.innerText || '').slice(0, 200) : '';
			out.push({ href: href, text: (a.innerText || '').trim().slice(0, 120), context: context });
		}
	};
	collect(document);
	for (const f of document.querySelectorAll('iframe')) {
		try {
			if (f.contentDocument) collect(f.contentDocument);
		} catch (e) {}
	}
	return out;
}`

// scriptHalfScroll scrolls halfway down the page for the scroll-triggered
// pass.
const scriptHalfScroll = `() => {
	const h = document.body ? document.body.scrollHeight : 0;
	window.scrollTo(0, Math.floor(h / 2));
	window.dispatchEvent(new Event('scroll'));
	return true;
}`
