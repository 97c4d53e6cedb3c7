package seeds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRegistry(t *testing.T) {
	payload := []byte(`{
		"version": 1,
		"seeds": [
			{"peerId": "0xabc", "address": "203.0.113.1:7331", "source": "ops"},
			{"peerId": "0xdef", "address": "203.0.113.2:7331"}
		]
	}`)
	reg, err := Parse(payload)
	require.NoError(t, err)
	require.Len(t, reg.Seeds, 2)
	require.Equal(t, "ops", reg.Seeds[0].Source)
}

func TestParseRegistryDefaultsVersion(t *testing.T) {
	reg, err := Parse([]byte(`{"seeds": []}`))
	require.NoError(t, err)
	require.Equal(t, supportedRegistryVersion, reg.Version)
}

func TestParseRegistryRejectsBadPayloads(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"empty", ``},
		{"not json", `{{`},
		{"bad version", `{"version": 2, "seeds": []}`},
		{"missing peer id", `{"seeds": [{"address": "203.0.113.1:7331"}]}`},
		{"missing address", `{"seeds": [{"peerId": "0xabc"}]}`},
		{"bad address", `{"seeds": [{"peerId": "0xabc", "address": "nope"}]}`},
		{"inverted window", `{"seeds": [{"peerId": "0xabc", "address": "203.0.113.1:7331", "notBefore": 200, "notAfter": 100}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.payload))
			require.Error(t, err)
		})
	}
}

func TestEntriesHonorActivityWindows(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	payload := []byte(`{
		"seeds": [
			{"peerId": "0xlive", "address": "203.0.113.1:7331"},
			{"peerId": "0xlive", "address": "203.0.113.1:7331"},
			{"peerId": "0xearly", "address": "203.0.113.2:7331", "notBefore": 2000000},
			{"peerId": "0xlate", "address": "203.0.113.3:7331", "notAfter": 500000},
			{"peerId": "0xwindowed", "address": "203.0.113.4:7331", "notBefore": 900000, "notAfter": 1100000}
		]
	}`)
	reg, err := Parse(payload)
	require.NoError(t, err)

	entries := reg.Entries(now)
	require.Equal(t, []string{
		"0xlive@203.0.113.1:7331",
		"0xwindowed@203.0.113.4:7331",
	}, entries)
}
