package doctors

// Page scripts for roster extraction. Like the channel passes, scripts only
// harvest raw material; name validation and card parsing stay in Go.

// scriptTextNodeCount counts text nodes of 2+ chars carrying a medical
// keyword. Below two such nodes the roster is treated as image-based.
const scriptTextNodeCount = `() => {
	const re = /원장|대표원장|부원장|전문의|의사|학력|경력|약력|자격|졸업|수료|대학원|대학교|정회원|학회|인턴|레지던트|수련|피부과/;
	let count = 0;
	const walker = document.createTreeWalker(document.body, NodeFilter.SHOW_TEXT);
	while (walker.nextNode()) {
		const t = walker.currentNode.textContent.trim();
		if (t.length >= 2 && re.test(t)) count++;
	}
	return count;
}`

// scriptSelectorCards harvests the dedicated roster selectors, plus the
// nearest container of every .doctor-name element.
const scriptSelectorCards = `() => {
	const out = [];
	const seen = new Set();
	const push = (el) => {
		if (!el || seen.has(el)) return;
		seen.add(el);
		const text = (el.innerText || '').trim();
		if (!text) return;
		const img = el.querySelector('img[src]');
		out.push({ text: text.slice(0, 5000), photo: img ? img.src : '' });
	};
	const selectors = '.doctor-card, .doctor-item, .staff-item, .team-member, .doctor-info, ' +
		'.doctor-list > li, .staff-list > li, [class*="doctor"], [class*="staff"]';
	for (const el of document.querySelectorAll(selectors)) push(el);
	for (const name of document.querySelectorAll('.doctor-name')) {
		push(name.closest('li, article, section, div') || name.parentElement);
	}
	return out;
}`

// scriptGenericCards harvests generic containers whose text carries a role
// title, for sites without roster-specific class names.
const scriptGenericCards = `() => {
	const out = [];
	const roleRe = /대표원장|부원장|원장|전문의|의사/;
	const selectors = 'li, article, section, .item, .card, .member, ' +
		'[class*="team"], [class*="profile"], [class*="intro"], [class*="doctor"], [class*="staff"]';
	for (const el of document.querySelectorAll(selectors)) {
		const text = (el.innerText || '').trim();
		if (text.length < 4 || text.length > 5000) continue;
		if (!roleRe.test(text)) continue;
		const img = el.querySelector('img[src]');
		out.push({ text: text, photo: img ? img.src : '' });
	}
	return out;
}`

// scriptHeadingCards harvests short headings with their enclosing container
// text, for rosters that only mark the name up as a heading.
const scriptHeadingCards = `() => {
	const out = [];
	for (const el of document.querySelectorAll('h1, h2, h3, h4, h5, strong, b, .title, [class*="name"]')) {
		const text = (el.innerText || '').trim();
		if (text.length < 2 || text.length > 4) continue;
		const container = el.closest('li, article, section, div') || el.parentElement;
		let containerText = '';
		let photo = '';
		if (container) {
			containerText = (container.innerText || '').slice(0, 500);
			const img = container.querySelector('img[src]');
			if (img) photo = img.src;
		}
		out.push({ text: text, containerText: containerText, photo: photo });
	}
	return out;
}`

// scriptMenuLinks hover-reveals nav submenus, then enumerates every anchor
// with its parent menu label so submenu children can inherit relevance.
const scriptMenuLinks = `() => {
	for (const li of document.querySelectorAll('nav li, header li, .menu li, .gnb li')) {
		li.dispatchEvent(new MouseEvent('mouseover', { bubbles: true }));
		li.dispatchEvent(new MouseEvent('mouseenter', { bubbles: true }));
	}
	const out = [];
	for (const a of document.querySelectorAll('a[href]')) {
		let href = '';
		try { href = a.href || ''; } catch (e) { continue; }
		if (!href) continue;
		const style = getComputedStyle(a);
		const rect = a.getBoundingClientRect();
		const visible = style.display !== 'none' && style.visibility !== 'hidden' && rect.height > 0;
		let parentMenu = '';
		const li = a.closest('li');
		if (li) {
			const parentLi = li.parentElement ? li.parentElement.closest('li') : null;
			if (parentLi) {
				const parentAnchor = parentLi.querySelector('a');
				if (parentAnchor) parentMenu = (parentAnchor.innerText || '').trim().slice(0, 40);
			}
		}
		out.push({
			href: href,
			text: (a.innerText || '').trim().slice(0, 60),
			visible: visible,
			parentMenu: parentMenu
		});
	}
	return out;
}`
