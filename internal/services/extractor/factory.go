package extractor

import (
	"fmt"
	"net/http"

	"github.com/reelbridge/reelbridge/internal/config"
)

// NewChainFromConfig builds the strategy chain in the configured order.
func NewChainFromConfig(cfg *config.Config, httpClient *http.Client) (*Chain, error) {
	names := cfg.Extraction.Strategies
	if len(names) == 0 {
		names = config.DefaultStrategies
	}

	strategies := make([]Strategy, 0, len(names))
	for _, name := range names {
		s, err := NewStrategy(name, cfg, httpClient)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}
	return NewChain(cfg.Extraction.Timeout, strategies...), nil
}

// NewStrategy creates a single strategy by name.
func NewStrategy(name string, cfg *config.Config, httpClient *http.Client) (Strategy, error) {
	switch name {
	case "ytdlp":
		return NewYtDlp(cfg.YtDlpPath), nil
	case "snapsave":
		return NewSnapSave(DefaultSnapSaveEndpoint, httpClient), nil
	case "pagemeta":
		return NewPageMeta(httpClient), nil
	case "graphql":
		return NewGraphQL(cfg.ProxyServerURL, cfg.ProxyAPIKey, httpClient), nil
	case "rapidapi":
		return NewRapidAPI(DefaultRapidAPIEndpoint, cfg.RapidAPIKey, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown extraction strategy: %s", name)
	}
}
