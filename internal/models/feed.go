package models

// FeedDescriptor describes one syndication source. Descriptors are built
// at process start from static configuration and are never mutated.
type FeedDescriptor struct {
	Name     string
	URL      string
	Category string
	Provider string
}
