/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"

	"github.com/suparena/storehub/internal/logger"
	"github.com/suparena/storehub/registry"
	"github.com/suparena/storehub/storagemodels"
)

// Load implements datastore.Adapter. It returns (nil, nil) when no manifest
// has been written for path.
func (a *Adapter) Load(ctx context.Context, path string) (*storagemodels.Snapshot, error) {
	items, err := a.queryPartition(ctx, partitionKey(path))
	if err != nil {
		return nil, err
	}

	var manifest *manifestItem
	collections := make(map[string]*collectionItem)
	for _, item := range items {
		switch v := item.(type) {
		case *manifestItem:
			manifest = v
		case *collectionItem:
			collections[v.Collection] = v
		}
	}
	if manifest == nil {
		return nil, nil
	}

	snap := &storagemodels.Snapshot{
		Path:          manifest.Path,
		EngineVersion: manifest.EngineVersion,
		Collections:   make([]storagemodels.CollectionSnapshot, 0, len(manifest.Collections)),
	}
	if savedAt, err := strfmt.ParseDateTime(manifest.SavedAt); err == nil {
		snap.SavedAt = time.Time(savedAt)
	}

	for _, name := range manifest.Collections {
		item, ok := collections[name]
		if !ok {
			return nil, fmt.Errorf("snapshot %q lists collection %q but no item was found", path, name)
		}
		var cs storagemodels.CollectionSnapshot
		if err := json.Unmarshal([]byte(item.Data), &cs); err != nil {
			return nil, fmt.Errorf("failed to decode collection %q: %w", name, err)
		}
		snap.Collections = append(snap.Collections, cs)
	}
	return snap, nil
}

// queryPartition reads every item under pk, page by page, decoding each
// through the type registry by its EntityType attribute.
func (a *Adapter) queryPartition(ctx context.Context, pk string) ([]interface{}, error) {
	keyCond := "PK = :pk"
	input := &sdk.QueryInput{
		TableName:              &a.tableName,
		KeyConditionExpression: &keyCond,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
		Limit: aws.Int32(a.pageSize),
	}

	var results []interface{}
	pages := 0
	for {
		out, err := a.queryWithRetry(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query error: %w", err)
		}
		pages++

		for _, item := range out.Items {
			var entityType string
			attr, ok := item["EntityType"]
			if !ok {
				return nil, fmt.Errorf("missing EntityType attribute in item")
			}
			if err := attributevalue.Unmarshal(attr, &entityType); err != nil {
				return nil, fmt.Errorf("failed to unmarshal EntityType: %w", err)
			}

			unmarshalFn, err := registry.GetUnmarshalFunc(entityType)
			if err != nil {
				logger.Debug("skipping item of unknown type", "entity_type", entityType, "pk", pk)
				continue
			}
			obj, err := unmarshalFn(item)
			if err != nil {
				return nil, fmt.Errorf("failed to unmarshal item for EntityType %q: %w", entityType, err)
			}
			results = append(results, obj)
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	logger.Debug("partition loaded", "pk", pk, "items", len(results), "pages", pages)
	return results, nil
}

// queryWithRetry executes a query, backing off linearly on retryable errors.
func (a *Adapter) queryWithRetry(ctx context.Context, input *sdk.QueryInput) (*sdk.QueryOutput, error) {
	var lastErr error

	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		out, err := a.client.Query(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return nil, err
		}

		if attempt < a.maxRetries {
			backoff := time.Duration(attempt+1) * a.retryBackoff
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("query failed after %d retries: %w", a.maxRetries, lastErr)
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	switch err.(type) {
	case *types.ProvisionedThroughputExceededException:
		return true
	case *types.RequestLimitExceeded:
		return true
	case *types.InternalServerError:
		return true
	}

	if awsErr, ok := err.(interface{ IsRetryable() bool }); ok {
		return awsErr.IsRetryable()
	}
	return false
}
