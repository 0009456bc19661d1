package cache

import (
	"crypto/sha256"
	"fmt"
	"regexp"
)

// historyPrefix namespaces per-topic history records in the store.
const historyPrefix = "history_"

var topicPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Fingerprint returns the cache key for a prompt and its context. The prompt
// is length-prefixed so ("a:b", "") and ("a", "b") cannot collide.
func Fingerprint(prompt, context string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d:%s", len(prompt), prompt)
	h.Write([]byte(context))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// HistoryKey returns the store key holding the history for topic.
func HistoryKey(topic string) string {
	return historyPrefix + topic
}

// ValidTopic reports whether topic can be used as a history name.
func ValidTopic(topic string) bool {
	return topicPattern.MatchString(topic)
}
