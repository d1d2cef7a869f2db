package rediskey

import "fmt"

// Key namespaces (global convention across services)
const (
	SequencePrefix = "seq"
	CampaignScope  = "campaign"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildCampaignSequenceKey returns "seq:campaign", the global campaign
// code counter.
func BuildCampaignSequenceKey() string {
	return NamespaceKey(SequencePrefix, CampaignScope)
}

// BuildDailySequenceKey returns "seq:{prefix}:{scope}:{day}", a counter
// that resets per UTC day.
func BuildDailySequenceKey(prefix, scope, day string) string {
	return NamespaceKey(SequencePrefix, fmt.Sprintf("%s:%s:%s", prefix, scope, day))
}
