package groups

import "github.com/pders01/newsagent/internal/feed"

// Builtin returns the preset groups shipped with newsagent.
func Builtin() []Group {
	return []Group{
		{Name: "Top/General", Feeds: []feed.Source{
			{Name: "Reuters Top News", URL: "https://feeds.reuters.com/reuters/topNews"},
			{Name: "AP Top News", URL: "https://apnews.com/hub/ap-top-news?output=rss"},
			{Name: "CNBC", URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html"},
		}},
		{Name: "Business", Feeds: []feed.Source{
			{Name: "Reuters Business", URL: "https://feeds.reuters.com/reuters/businessNews"},
		}},
		{Name: "Technology", Feeds: []feed.Source{
			{Name: "AP Technology", URL: "https://apnews.com/hub/technology?output=rss"},
			{Name: "TechCrunch", URL: "https://techcrunch.com/feed/"},
			{Name: "The Verge", URL: "https://www.theverge.com/rss/index.xml"},
		}},
		{Name: "EV & Energy", Feeds: []feed.Source{
			{Name: "Electrek", URL: "https://electrek.co/feed/"},
		}},
		{Name: "Default", Feeds: []feed.Source{
			{Name: "Reuters Top News", URL: "https://feeds.reuters.com/reuters/topNews"},
			{Name: "New York Times", URL: "https://rss.nytimes.com/services/xml/rss/nyt/HomePage.xml"},
			{Name: "The Guardian World", URL: "https://www.theguardian.com/world/rss"},
			{Name: "BBC News", URL: "https://feeds.bbci.co.uk/news/rss.xml"},
			{Name: "CNBC", URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html"},
		}},
	}
}

// LoadRegistry returns the built-in groups extended (or overridden) by the
// groups in path. An empty path yields the built-ins only.
func LoadRegistry(path string) (*Registry, error) {
	r := NewRegistry(Builtin()...)
	if path == "" {
		return r, nil
	}
	extra, err := Load(path)
	if err != nil {
		return nil, err
	}
	for _, g := range extra {
		r.Add(g)
	}
	return r, nil
}
