package browser

// Page scripts used by the navigation agent. Each is a named, versioned
// asset with a stable JSON input/output contract; the Go side parses the
// result through typed structs.

// scriptPageStats summarizes the rendered page for splash detection:
// anchor count, visible text length and same-host links.
const scriptPageStats = `() => {
	const anchors = Array.from(document.querySelectorAll('a[href]'));
	const text = document.body ? document.body.innerText : '';
	const host = location.host;
	const internal = [];
	for (const a of anchors) {
		let href = a.getAttribute('href') || '';
		if (!href || href.startsWith('#') || href.startsWith('javascript:')) continue;
		let abs;
		try { abs = new URL(href, location.href); } catch (e) { continue; }
		if (abs.host === host) {
			internal.push({ href: abs.href, text: (a.innerText || '').trim().slice(0, 80) });
		}
	}
	return { linkCount: anchors.length, textLen: text.length, internalLinks: internal.slice(0, 50) };
}`

// scriptSpaWait resolves once DOM mutations stay quiet for quietMs, or after
// capMs regardless.
const scriptSpaWait = `(quietMs, capMs) => new Promise(resolve => {
	let timer = setTimeout(done, quietMs);
	const cap = setTimeout(done, capMs);
	const observer = new MutationObserver(() => {
		clearTimeout(timer);
		timer = setTimeout(done, quietMs);
	});
	observer.observe(document.documentElement, { childList: true, subtree: true, attributes: true });
	function done() {
		observer.disconnect();
		clearTimeout(timer);
		clearTimeout(cap);
		resolve(true);
	}
})`

// scriptScrollHeight reads the current document height.
const scriptScrollHeight = `() => document.body ? document.body.scrollHeight : 0`

// scriptScrollTo jumps to an absolute Y offset.
const scriptScrollTo = `(y) => { window.scrollTo(0, y); return true; }`

// scriptViewportHeight reads the viewport height.
const scriptViewportHeight = `() => window.innerHeight || 900`

// scriptClosePopupContainers hides visible popup/modal containers and clicks
// their close buttons. Returns how many elements it acted on.
const scriptClosePopupContainers = `() => {
	const closeSelectors = [
		'.popup .close', '.popup .btn-close', '.popup-close', '.modal .close',
		'.modal .btn-close', '.layer-close', '.layer_close', '.btn_close',
		'[class*="popup"] [class*="close"]', '[class*="modal"] [class*="close"]',
		'[aria-label="close"]', '[aria-label="Close"]', '[aria-label="닫기"]'
	];
	let acted = 0;
	for (const sel of closeSelectors) {
		for (const el of document.querySelectorAll(sel)) {
			const r = el.getBoundingClientRect();
			if (r.width === 0 && r.height === 0) continue;
			try { el.click(); acted++; } catch (e) {}
		}
	}
	const containers = document.querySelectorAll('.popup, .modal, .layer-popup, [class*="popup-wrap"], [id*="popup"]');
	for (const el of containers) {
		const style = getComputedStyle(el);
		if (style.position === 'fixed' || style.position === 'absolute') {
			if (style.display !== 'none' && acted === 0) {
				el.style.display = 'none';
				acted++;
			}
		}
	}
	return acted;
}`

// scriptClickClosingText clicks buttons whose label is a known closing word.
const scriptClickClosingText = `() => {
	const words = ['닫기', '확인', '오늘 하루 보지 않기', '오늘하루 열지않기', '다시 보지 않기',
		'하루동안 보지 않기', 'close', 'Close', 'CLOSE', 'X', '×'];
	let acted = 0;
	const candidates = document.querySelectorAll('a, button, span, div, label');
	for (const el of candidates) {
		const t = (el.innerText || '').trim();
		if (!t || t.length > 20) continue;
		if (words.includes(t)) {
			const r = el.getBoundingClientRect();
			if (r.width === 0 && r.height === 0) continue;
			try { el.click(); acted++; } catch (e) {}
			if (acted >= 5) break;
		}
	}
	return acted;
}`

// scriptCheckTodayClose ticks "do not show today" checkboxes then clicks the
// nearest overlay.
const scriptCheckTodayClose = `() => {
	let acted = 0;
	const boxes = document.querySelectorAll('input[type="checkbox"]');
	for (const box of boxes) {
		const label = (box.parentElement ? box.parentElement.innerText : '') || '';
		if (/오늘|하루|다시/.test(label)) {
			try { box.click(); acted++; } catch (e) {}
		}
	}
	if (acted > 0) {
		const overlays = document.querySelectorAll('.popup, .modal, [class*="overlay"], [class*="dimmed"]');
		for (const el of overlays) {
			try { el.click(); } catch (e) {}
		}
	}
	return acted;
}`
