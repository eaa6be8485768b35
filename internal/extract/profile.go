package extract

import (
	"fmt"
	"sort"
	"time"
)

// Profile parameterizes the generic extraction pipeline for one platform:
// the ordered strategies, settle waits, retry policy and the record store
// field names. Adding a platform means adding a profile, not a pipeline.
type Profile struct {
	Platform    string `yaml:"platform"`
	URLTemplate string `yaml:"url_template"`

	Strategies []Strategy `yaml:"strategies"`

	// ReadySelector, when set, is waited on before the first scan pass.
	ReadySelector string        `yaml:"ready_selector,omitempty"`
	ReadyTimeout  time.Duration `yaml:"ready_timeout,omitempty"`

	// SettleWait runs after navigation to let dynamic content render.
	SettleWait time.Duration `yaml:"settle_wait"`

	// QuickScanPasses is the number of extra fast re-scan passes before
	// the chain escalates to its longer wait.
	QuickScanPasses   int           `yaml:"quick_scan_passes"`
	QuickScanInterval time.Duration `yaml:"quick_scan_interval"`

	// EscalateSettle runs before the final scan pass that includes
	// last-resort strategies.
	EscalateSettle time.Duration `yaml:"escalate_settle"`

	// VerifyLocation enables the redirect check: the current URL must
	// still correspond to the requested handle on every scan pass.
	VerifyLocation bool `yaml:"verify_location"`

	// DismissSelector, when set, names a blocking-overlay close control
	// that is clicked at most once after the page settles.
	DismissSelector string        `yaml:"dismiss_selector,omitempty"`
	DismissTimeout  time.Duration `yaml:"dismiss_timeout,omitempty"`

	// Retry policy applied by the controller, not the chain.
	MaxAttempts      int           `yaml:"max_attempts"`
	BackoffMin       time.Duration `yaml:"backoff_min"`
	BackoffMax       time.Duration `yaml:"backoff_max"`
	HardErrorBackoff time.Duration `yaml:"hard_error_backoff"`

	// Randomized politeness wait between accounts.
	AccountWaitMin time.Duration `yaml:"account_wait_min"`
	AccountWaitMax time.Duration `yaml:"account_wait_max"`

	// Record store field names for this platform.
	HandleField string `yaml:"handle_field"`
	CountField  string `yaml:"count_field"`
}

// ProfileURL builds the public profile URL for a handle.
func (p *Profile) ProfileURL(handle string) string {
	return fmt.Sprintf(p.URLTemplate, handle)
}

// Profiles returns the built-in platform profiles keyed by platform name.
func Profiles() map[string]*Profile {
	return map[string]*Profile{
		"twitter":   TwitterProfile(),
		"instagram": InstagramProfile(),
		"facebook":  FacebookProfile(),
		"youtube":   YouTubeProfile(),
	}
}

// PlatformNames returns the built-in platform names in stable order.
func PlatformNames() []string {
	names := make([]string, 0, 4)
	for name := range Profiles() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TwitterProfile targets twitter.com profile pages. Twitter renders counts
// late and redirects unavailable handles, so the profile leans on quick
// in-page script passes, redirect verification and a fixed 10s backoff
// after hard page errors.
func TwitterProfile() *Profile {
	return &Profile{
		Platform:    "twitter",
		URLTemplate: "https://twitter.com/%s",
		Strategies: []Strategy{
			{
				Name:   "page-script-scan",
				Kind:   KindScript,
				Script: twitterScanScript,
			},
			{
				Name:         "full-html-label-scan",
				Kind:         KindHTMLScan,
				LabelPattern: twitterLabelPattern,
				LastResort:   true,
			},
		},
		ReadySelector:     "body",
		ReadyTimeout:      10 * time.Second,
		QuickScanPasses:   4,
		QuickScanInterval: 500 * time.Millisecond,
		EscalateSettle:    2 * time.Second,
		VerifyLocation:    true,
		MaxAttempts:       3,
		BackoffMin:        10 * time.Second,
		BackoffMax:        10 * time.Second,
		HardErrorBackoff:  10 * time.Second,
		AccountWaitMin:    200 * time.Millisecond,
		AccountWaitMax:    500 * time.Millisecond,
		HandleField:       "twitter_user",
		CountField:        "twitter_followers",
	}
}

// InstagramProfile targets instagram.com profile pages. The og:description
// meta tag is the most reliable source; element reads around the followers
// link cover logged-out markup variants.
func InstagramProfile() *Profile {
	return &Profile{
		Platform:    "instagram",
		URLTemplate: "https://www.instagram.com/%s/",
		Strategies: []Strategy{
			{
				Name:      "meta-description",
				Kind:      KindMetaAttribute,
				Selector:  instagramMetaSelector,
				Attribute: "content",
			},
			{
				Name:     "followers-link-count",
				Kind:     KindSelectorText,
				Selector: instagramFollowersLink,
			},
			{
				Name:         "stat-class-scan",
				Kind:         KindSelectorScan,
				Selector:     instagramStatClasses,
				LabelPattern: "",
			},
			{
				Name:     "followers-link-span",
				Kind:     KindSelectorText,
				Selector: instagramFollowersLinkSpan,
			},
			{
				Name:         "full-html-label-scan",
				Kind:         KindHTMLScan,
				LabelPattern: instagramLabelPattern,
				LastResort:   true,
			},
		},
		ReadySelector:    "body",
		ReadyTimeout:     10 * time.Second,
		SettleWait:       2 * time.Second,
		EscalateSettle:   5 * time.Second,
		MaxAttempts:      2,
		BackoffMin:       time.Second,
		BackoffMax:       2 * time.Second,
		HardErrorBackoff: 2 * time.Second,
		AccountWaitMin:   time.Second,
		AccountWaitMax:   2 * time.Second,
		HandleField:      "ig_user",
		CountField:       "ig_followers",
	}
}

// FacebookProfile targets facebook.com pages. A login overlay usually
// blocks the page for anonymous visits and is dismissed once if present.
func FacebookProfile() *Profile {
	return &Profile{
		Platform:    "facebook",
		URLTemplate: "https://www.facebook.com/%s",
		Strategies: []Strategy{
			{
				Name:     "followers-link-span",
				Kind:     KindSelectorText,
				Selector: facebookFollowersSpan,
			},
			{
				Name:     "followers-link",
				Kind:     KindSelectorText,
				Selector: facebookFollowersLink,
			},
			{
				Name:         "full-html-label-scan",
				Kind:         KindHTMLScan,
				LabelPattern: facebookLabelPattern,
			},
		},
		SettleWait:       1500 * time.Millisecond,
		DismissSelector:  facebookDismissSelector,
		DismissTimeout:   5 * time.Second,
		EscalateSettle:   2 * time.Second,
		MaxAttempts:      2,
		BackoffMin:       time.Second,
		BackoffMax:       2 * time.Second,
		HardErrorBackoff: 2 * time.Second,
		AccountWaitMin:   time.Second,
		AccountWaitMax:   2 * time.Second,
		HandleField:      "facebook_user",
		CountField:       "facebook_followers",
	}
}

// YouTubeProfile targets youtube.com channel pages via the @handle URL.
// Subscriber counts appear in several renderer variants, scanned in order
// of observed reliability; every candidate must carry a subscriber label.
func YouTubeProfile() *Profile {
	scan := func(name, selector string) Strategy {
		return Strategy{
			Name:         name,
			Kind:         KindSelectorScan,
			Selector:     selector,
			LabelPattern: youtubeLabelPattern,
		}
	}
	return &Profile{
		Platform:    "youtube",
		URLTemplate: "https://www.youtube.com/@%s",
		Strategies: []Strategy{
			scan("attributed-span", youtubeAttributedSpan),
			scan("owner-renderer", youtubeOwnerRenderer),
			scan("attributed-any", youtubeAttributedAny),
			scan("subscriber-count-id", youtubeSubscriberCount),
			scan("subscriber-count-tag", youtubeSubscriberTag),
			{
				Name:         "full-html-label-scan",
				Kind:         KindHTMLScan,
				LabelPattern: youtubeLabelPattern,
				LastResort:   true,
			},
		},
		SettleWait:       4 * time.Second,
		EscalateSettle:   2 * time.Second,
		MaxAttempts:      2,
		BackoffMin:       time.Second,
		BackoffMax:       2 * time.Second,
		HardErrorBackoff: 2 * time.Second,
		AccountWaitMin:   time.Second,
		AccountWaitMax:   2 * time.Second,
		HandleField:      "youtube_user",
		CountField:       "youtube_followers",
	}
}
