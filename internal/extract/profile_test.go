package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileURL(t *testing.T) {
	assert.Equal(t, "https://twitter.com/alice", TwitterProfile().ProfileURL("alice"))
	assert.Equal(t, "https://www.instagram.com/alice/", InstagramProfile().ProfileURL("alice"))
	assert.Equal(t, "https://www.facebook.com/alice", FacebookProfile().ProfileURL("alice"))
	assert.Equal(t, "https://www.youtube.com/@alice", YouTubeProfile().ProfileURL("alice"))
}

func TestPlatformNames(t *testing.T) {
	assert.Equal(t, []string{"facebook", "instagram", "twitter", "youtube"}, PlatformNames())
}

func TestProfiles_StoreFieldNames(t *testing.T) {
	profiles := Profiles()

	fields := map[string][2]string{
		"twitter":   {"twitter_user", "twitter_followers"},
		"instagram": {"ig_user", "ig_followers"},
		"facebook":  {"facebook_user", "facebook_followers"},
		"youtube":   {"youtube_user", "youtube_followers"},
	}
	for platform, expected := range fields {
		profile, ok := profiles[platform]
		require.True(t, ok, platform)
		assert.Equal(t, expected[0], profile.HandleField, platform)
		assert.Equal(t, expected[1], profile.CountField, platform)
	}
}

func TestProfiles_RetryPolicies(t *testing.T) {
	assert.Equal(t, 3, TwitterProfile().MaxAttempts)
	assert.Equal(t, 2, InstagramProfile().MaxAttempts)
	assert.Equal(t, 2, FacebookProfile().MaxAttempts)
	assert.Equal(t, 2, YouTubeProfile().MaxAttempts)
}

func TestProfiles_LastResortPlacement(t *testing.T) {
	for platform, profile := range Profiles() {
		require.NotEmpty(t, profile.Strategies, platform)
		assert.False(t, profile.Strategies[0].LastResort,
			"%s: first strategy must be a primary", platform)
	}
}
