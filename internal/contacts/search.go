package contacts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/pavelkurin/portfolio_backend/internal/authz"
	"github.com/pavelkurin/portfolio_backend/internal/models"
	"github.com/pavelkurin/portfolio_backend/internal/service"
)

var ErrSearchUnavailable = errors.New("search is not configured")

func (s *Service) index(ctx context.Context, c *models.Contact) error {
	if s.ES == nil {
		return nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	res, err := s.ES.Index(
		s.Index,
		bytes.NewReader(data),
		s.ES.Index.WithDocumentID(strconv.FormatUint(uint64(c.ID), 10)),
		s.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index contact: %s", res.Status())
	}
	return nil
}

func (s *Service) deindex(ctx context.Context, id uint) error {
	if s.ES == nil {
		return nil
	}
	res, err := s.ES.Delete(
		s.Index,
		strconv.FormatUint(uint64(id), 10),
		s.ES.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("deindex contact: %s", res.Status())
	}
	return nil
}

// Search runs a fuzzy full-text query over the mailbox. Admin and SuperUser
// only.
func (s *Service) Search(ctx context.Context, actor authz.Actor, query string, from, size int) (int64, []models.Contact, error) {
	if !actor.Role.AtLeast(authz.RoleAdmin) {
		return 0, nil, service.ErrUnauthorized
	}
	if s.ES == nil {
		return 0, nil, ErrSearchUnavailable
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	if from < 0 {
		from = 0
	}

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"subject^2", "message", "name", "email"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Contact `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	out := make([]models.Contact, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		out[i] = hit.Source
	}
	return r.Hits.Total.Value, out, nil
}
