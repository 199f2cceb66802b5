// Package cosmos implements the report persistence contract against Azure
// Cosmos DB. Cosmos throttles writes by request units, so this backend
// carries the full retry/backoff discipline for the write path.
package cosmos

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	azruntime "github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/dexstatus/reportstore/pkg/persistence"
)

const (
	// MaxRetryAttempts is the write retry ceiling.
	MaxRetryAttempts = 100

	// DefaultRetryInterval is the base wait between write attempts when the
	// backend gives no recommendation of its own.
	DefaultRetryInterval = 500 * time.Millisecond
)

var (
	writeRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reportstore_cosmos_write_retries_total",
		Help: "Write attempts against Cosmos DB that had to be retried",
	})
	throttledWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reportstore_cosmos_throttled_writes_total",
		Help: "Write attempts rejected by Cosmos DB rate limiting (429)",
	})
)

// containerClient is the slice of *azcosmos.ContainerClient the collection
// uses, split out so tests can fake the backend.
type containerClient interface {
	CreateItem(ctx context.Context, partitionKey azcosmos.PartitionKey, item []byte, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)
	ReadItem(ctx context.Context, partitionKey azcosmos.PartitionKey, itemID string, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)
	DeleteItem(ctx context.Context, partitionKey azcosmos.PartitionKey, itemID string, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)
	NewQueryItemsPager(query string, partitionKey azcosmos.PartitionKey, o *azcosmos.QueryOptions) *azruntime.Pager[azcosmos.QueryItemsResponse]
}

// Collection is the Cosmos DB realization of the persistence contract for
// one container.
type Collection[T any] struct {
	container containerClient

	// sleep is swapped out by tests that verify the backoff schedule.
	sleep func(time.Duration)
}

func newCollection[T any](container containerClient) (*Collection[T], error) {
	if container == nil {
		return nil, errors.New("cosmos collection requires a container client")
	}
	return &Collection[T]{container: container, sleep: time.Sleep}, nil
}

// GetItem reads one item, using the id as its own partition key.
func (c *Collection[T]) GetItem(ctx context.Context, id string) (*T, error) {
	response, err := c.container.ReadItem(ctx, azcosmos.NewPartitionKeyString(id), id, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	var item T
	if err := json.Unmarshal(response.Value, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// QueryItems executes the provided query across all partitions and decodes
// each row.
func (c *Collection[T]) QueryItems(ctx context.Context, query string) ([]T, error) {
	// An empty partition key runs the query cross partition.
	pager := c.container.NewQueryItemsPager(query, azcosmos.PartitionKey{}, nil)
	items := make([]T, 0)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var item T
			if err := json.Unmarshal(raw, &item); err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}
	return items, nil
}

// CreateItem persists one item, retrying transient failures until the write
// is confirmed or the retry ceiling is reached. Rate-limit rejections honor
// the wait the server recommends; other failures back off linearly. The
// write is idempotent: a conflict on the id being written means a prior
// attempt already landed and counts as success.
func (c *Collection[T]) CreateItem(ctx context.Context, id string, item T, partitionKey string) bool {
	body, err := json.Marshal(item)
	if err != nil {
		zap.S().Errorf("Failed to encode item %s for cosmosdb: %s", id, err)
		return false
	}
	pk := azcosmos.NewPartitionKeyString(partitionKey)

	for attempt := 0; attempt < MaxRetryAttempts; attempt++ {
		_, err := c.container.CreateItem(ctx, pk, body, nil)
		if err == nil {
			if attempt > 0 {
				zap.S().Infof("Successfully created item %s after %d attempts", id, attempt+1)
			}
			return true
		}

		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) {
			switch respErr.StatusCode {
			case http.StatusConflict:
				// A previous attempt succeeded but its acknowledgment was
				// lost, otherwise this id could not exist yet.
				zap.S().Warnf("Item %s already exists, treating create as success", id)
				return true
			case http.StatusTooManyRequests:
				throttledWrites.Inc()
				wait := recommendedWait(respErr.RawResponse)
				zap.S().Warnf("Received 429 (too many requests) from cosmosdb, attempt %d, will retry after %s, id = %s",
					attempt+1, wait, id)
				c.sleep(wait)
				writeRetries.Inc()
				continue
			}
		}

		wait := DefaultRetryInterval * time.Duration(attempt+1)
		zap.S().Warnf("Write to cosmosdb failed (%s), attempt %d, will retry after %s, id = %s",
			err, attempt+1, wait, id)
		c.sleep(wait)
		writeRetries.Inc()
	}

	zap.S().Errorf("Giving up creating item %s after %d attempts", id, MaxRetryAttempts)
	return false
}

// DeleteItem removes one item by id and partition key.
func (c *Collection[T]) DeleteItem(ctx context.Context, itemID string, partitionKey string) bool {
	_, err := c.container.DeleteItem(ctx, azcosmos.NewPartitionKeyString(partitionKey), itemID, nil)
	if err != nil {
		zap.S().Errorf("Failed to delete item %s from cosmosdb: %s", itemID, err)
		return false
	}
	return true
}

// Dialect for Cosmos DB SQL queries.
func (c *Collection[T]) Dialect() persistence.Dialect {
	return persistence.Dialect{
		CollectionVariable:       "r",
		CollectionVariablePrefix: "r.",
		// Safer not to provide the container name; cosmos queries do not
		// need it.
		CollectionNameForQuery: "",
	}
}

// recommendedWait extracts the wait duration cosmos recommends on a 429,
// falling back to the default interval when the header is absent.
func recommendedWait(response *http.Response) time.Duration {
	if response == nil {
		return DefaultRetryInterval
	}
	header := response.Header.Get("x-ms-retry-after-ms")
	if header == "" {
		return DefaultRetryInterval
	}
	millis, err := strconv.ParseInt(header, 10, 64)
	if err != nil || millis < 0 {
		return DefaultRetryInterval
	}
	return time.Duration(millis) * time.Millisecond
}
