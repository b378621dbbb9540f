package announcements_api

import (
	"bytes"
	"context"
	"encoding/json"
	"listings-agent/internal/contracts"
	"listings-agent/internal/core/domain"
	"net/http"
)

// districtsResponse принимает как голый массив, так и конверт {"results": [...]}.
type districtsResponse []districtDTO

func (d *districtsResponse) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []districtDTO
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*d = list
		return nil
	}
	var envelope struct {
		Results []districtDTO `json:"results"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	*d = envelope.Results
	return nil
}

// ListDistricts - GET /districts
func (c *Client) ListDistricts(ctx context.Context) ([]domain.District, error) {
	var dto districtsResponse
	if err := c.call(ctx, http.MethodGet, "/districts", nil, nil, contracts.Districts, &dto); err != nil {
		return nil, err
	}

	result := make([]domain.District, len(dto))
	for i, d := range dto {
		result[i] = domain.District{ID: string(d.ID), Name: d.Name}
	}
	return result, nil
}
