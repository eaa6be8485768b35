package extract

// CSS selectors and label patterns per platform. Profile markup changes
// frequently; keeping these as data lets them be patched via the profile
// override file without touching chain logic.
const (
	// Twitter/X
	twitterLabelPattern = `(?i)followers`

	// Instagram
	instagramMetaSelector      = `meta[property="og:description"]`
	instagramFollowersLink     = `a[href*="/followers"] span span`
	instagramFollowersLinkSpan = `a[href*="/followers"] span[class*="_"]`
	instagramStatClasses       = `span[class*="_ac2a"], span[class*="_aacl"], span[class*="x1lliihq"], span[class*="x156sbe"]`
	instagramLabelPattern      = `(?i)followers`

	// Facebook
	facebookDismissSelector = `div[aria-label="Close"]`
	facebookFollowersSpan   = `a[href*="followers"] span`
	facebookFollowersLink   = `a[href*="followers"]`
	facebookLabelPattern    = `(?i)(people follow this|followers)`

	// YouTube
	youtubeAttributedSpan  = `span.yt-core-attributed-string[role="text"]`
	youtubeOwnerRenderer   = `yt-formatted-string.ytd-video-owner-renderer`
	youtubeAttributedAny   = `.yt-core-attributed-string[role="text"]`
	youtubeSubscriberCount = `#subscriber-count`
	youtubeSubscriberTag   = `yt-formatted-string#subscriber-count`
	youtubeLabelPattern    = `(?i)subscriber`
)

// twitterScanScript runs inside the page and returns a JSON array of
// candidate texts. It handles protected profiles (bare number next to a
// "Followers" sibling), the followers link, and the stats span pair where
// "Following" precedes "Followers".
const twitterScanScript = `
(function() {
	let results = [];
	try {
		function isValidFollowerText(text) {
			text = text.trim();
			return /^\d[\d,\.]*\s*[KMBkmb]?\s+Followers$/.test(text);
		}

		const allElements = document.querySelectorAll('span, div');
		for (const elem of allElements) {
			const text = elem.textContent.trim();
			if (/^[\d,\.]+\s*[KMBkmb]?$/.test(text)) {
				const nextElem = elem.nextElementSibling;
				if (nextElem && nextElem.textContent.trim() === 'Followers') {
					results.push(text + ' Followers');
				}
			}
		}

		if (results.length === 0) {
			const followerLinks = document.querySelectorAll('a[href$="/followers"]');
			for (const link of followerLinks) {
				const text = link.textContent.trim();
				if (isValidFollowerText(text)) {
					results.push(text);
				}
			}

			const spans = document.querySelectorAll('span[dir="ltr"]');
			let foundFollowing = false;
			for (const elem of spans) {
				const text = elem.textContent.trim();
				if (/^\d[\d,\.]*$/.test(text)) {
					const nextElem = elem.nextElementSibling;
					if (nextElem && nextElem.textContent.trim() === 'Following') {
						foundFollowing = true;
						continue;
					}
					if (foundFollowing && nextElem && nextElem.textContent.trim() === 'Followers') {
						results.push(text + ' Followers');
					}
				}
			}
		}
	} catch (e) {
	}
	return JSON.stringify(results);
})()
`
