package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildProviderProfileUsesDomainDefault(t *testing.T) {
	profile := BuildProviderProfile(DomainAcademic, nil)
	require.Equal(t, Profile{"tavily", "google_cse", "exa", "serper"}, profile)
}

func TestBuildProviderProfilePrependsHostnameHint(t *testing.T) {
	profile := BuildProviderProfile(DomainGeneral, []string{"https://github.com/golang/go"})
	require.Equal(t, "exa", profile[0])
	require.Contains(t, profile, "tavily")
}

func TestBuildProviderProfileDedupesHintAlreadyInDefault(t *testing.T) {
	profile := BuildProviderProfile(DomainCode, []string{"https://github.com/golang/go"})
	count := 0
	for _, p := range profile {
		if p == "exa" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestBuildProviderProfileUnknownDomainFallsBack(t *testing.T) {
	profile := BuildProviderProfile(ResearchDomain("unknown"), nil)
	require.Equal(t, defaultProfile, profile)
}
