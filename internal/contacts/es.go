package contacts

import (
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v9"
)

// NewESClient connects to Elasticsearch. An empty URL disables search: the
// mailbox keeps working against the database alone.
func NewESClient(url, user, password string) (*elasticsearch.Client, error) {
	if url == "" {
		return nil, nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch: %s: %s", res.Status(), body)
	}
	return client, nil
}
