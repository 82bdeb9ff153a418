package nlxd

import (
	"context"
	"net/http"
	"sort"
)

// Operations lists the identifiers of all operations known to the daemon,
// whatever their state.
func (c *Client) Operations(ctx context.Context) ([]string, error) {
	byStatus, err := syncRequest[map[string][]string](ctx, c, http.MethodGet, c.apiPath("operations"), nil)
	if err != nil {
		return nil, err
	}

	statuses := make([]string, 0, len(*byStatus))
	for status := range *byStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	var ids []string
	for _, status := range statuses {
		names, err := namesFromURLs((*byStatus)[status])
		if err != nil {
			return nil, err
		}
		ids = append(ids, names...)
	}
	return ids, nil
}
