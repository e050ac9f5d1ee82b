package feeds

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/dealsource/internal/config"
)

// LoadSources reads a feed list from a YAML file of the form:
//
//	sources:
//	  - name: prnewswire
//	    url: https://www.prnewswire.com/rss/news-releases-list.rss
func LoadSources(path string) ([]config.FeedSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "feeds: read %s", path)
	}

	var doc struct {
		Sources []config.FeedSource `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(err, "feeds: parse %s", path)
	}
	if len(doc.Sources) == 0 {
		return nil, eris.Errorf("feeds: no sources in %s", path)
	}

	for _, src := range doc.Sources {
		if src.Name == "" || src.URL == "" {
			return nil, eris.Errorf("feeds: source missing name or url in %s", path)
		}
	}
	return doc.Sources, nil
}
