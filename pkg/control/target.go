package control

import "github.com/google/uuid"

// NewCrawlID returns a fresh identifier for one crawl run.
func NewCrawlID() string {
	return uuid.NewString()
}

// Target builds the conventional bus target identifier: the crawl id
// prepended directly to the domain, e.g. "d22323edsd-https://mydomain.com".
// An empty crawl id yields the bare domain.
func Target(crawlID, domain string) string {
	if crawlID == "" {
		return domain
	}
	return crawlID + "-" + domain
}
