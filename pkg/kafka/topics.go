package kafka

import "fmt"

// TopicPrefix namespaces all topics produced by this project.
const TopicPrefix = "wbradar"

// Topic builds a fully-qualified topic name: <prefix>.<domain>.<action>,
// e.g. Topic("crawl", "completed") -> "wbradar.crawl.completed".
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}
