/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"

	"github.com/suparena/storehub/datastore"
	storeerrors "github.com/suparena/storehub/errors"
	"github.com/suparena/storehub/internal/logger"
	"github.com/suparena/storehub/registry"
	"github.com/suparena/storehub/storagemodels"
)

// Entity types written into the EntityType attribute of every item.
const (
	EntityManifest   = "SnapshotManifest"
	EntityCollection = "SnapshotCollection"
)

const (
	defaultPageSize     = 25
	defaultMaxRetries   = 3
	defaultRetryBackoff = 100 * time.Millisecond
)

// API is the subset of the DynamoDB client used by the adapter.
type API interface {
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
}

// Config selects the table and credentials of the adapter.
type Config struct {
	Region    string `mapstructure:"region" yaml:"region"`
	Table     string `mapstructure:"table" yaml:"table" validate:"required"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	// Endpoint overrides the service endpoint, e.g. DynamoDB Local.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	PageSize     int32         `mapstructure:"page_size" yaml:"page_size"`
	MaxRetries   int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" yaml:"retry_backoff"`
}

// manifestItem lists the collections of one saved snapshot, in order.
type manifestItem struct {
	Path          string   `dynamodbav:"Path"`
	EngineVersion string   `dynamodbav:"EngineVersion"`
	SavedAt       string   `dynamodbav:"SavedAt"`
	Collections   []string `dynamodbav:"Collections"`
}

// collectionItem holds one collection snapshot encoded as JSON.
type collectionItem struct {
	Path       string `dynamodbav:"Path"`
	Collection string `dynamodbav:"Collection"`
	Data       string `dynamodbav:"Data"`
}

func init() {
	registry.RegisterIndexMap[manifestItem](map[string]string{
		"PK": "SNAPSHOT#{Path}",
		"SK": "MANIFEST",
	})
	registry.RegisterIndexMap[collectionItem](map[string]string{
		"PK": "SNAPSHOT#{Path}",
		"SK": "COLLECTION#{Collection}",
	})

	registry.RegisterType(EntityManifest, func(item map[string]types.AttributeValue) (interface{}, error) {
		var m manifestItem
		err := attributevalue.UnmarshalMap(item, &m)
		return &m, err
	})
	registry.RegisterType(EntityCollection, func(item map[string]types.AttributeValue) (interface{}, error) {
		var c collectionItem
		err := attributevalue.UnmarshalMap(item, &c)
		return &c, err
	})
}

// Adapter persists database snapshots in a single DynamoDB table. Each
// snapshot is one partition: a manifest item plus one item per collection.
type Adapter struct {
	client       API
	tableName    string
	pageSize     int32
	maxRetries   int
	retryBackoff time.Duration
}

var _ datastore.Adapter = (*Adapter)(nil)

// NewDynamoDBClient initializes a DynamoDB client. Static credentials are
// used when an access key is given, the default chain otherwise.
func NewDynamoDBClient(ctx context.Context, cfg Config) (*sdk.Client, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := sdk.NewFromConfig(awsCfg, func(o *sdk.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	logger.Info("DynamoDB client initialized", "table", cfg.Table, "region", awsCfg.Region)
	return client, nil
}

// New creates an adapter backed by a new DynamoDB client.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	if cfg.Table == "" {
		return nil, storeerrors.NewValidationError("table", "DynamoDB table name is required")
	}
	client, err := NewDynamoDBClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	return NewWithClient(client, cfg), nil
}

// NewWithClient creates an adapter over an existing client.
func NewWithClient(client API, cfg Config) *Adapter {
	a := &Adapter{
		client:       client,
		tableName:    cfg.Table,
		pageSize:     cfg.PageSize,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
	}
	if a.pageSize <= 0 {
		a.pageSize = defaultPageSize
	}
	if a.maxRetries <= 0 {
		a.maxRetries = defaultMaxRetries
	}
	if a.retryBackoff <= 0 {
		a.retryBackoff = defaultRetryBackoff
	}
	return a
}

// Name implements datastore.Adapter.
func (a *Adapter) Name() string { return "dynamodb" }

// Close implements datastore.Adapter. The SDK client holds no resources.
func (a *Adapter) Close() error { return nil }

// Save implements datastore.Adapter. Collection items are written before
// the manifest; items of collections no longer present are deleted last.
func (a *Adapter) Save(ctx context.Context, path string, snap *storagemodels.Snapshot) error {
	existing, err := a.queryPartition(ctx, partitionKey(path))
	if err != nil {
		return err
	}

	keep := make(map[string]bool, len(snap.Collections))
	names := make([]string, 0, len(snap.Collections))
	for _, cs := range snap.Collections {
		data, err := json.Marshal(cs)
		if err != nil {
			return fmt.Errorf("failed to encode collection %q: %w", cs.Name, err)
		}
		item := collectionItem{Path: path, Collection: cs.Name, Data: string(data)}
		if err := putItem(ctx, a, item, EntityCollection); err != nil {
			return err
		}
		keep[cs.Name] = true
		names = append(names, cs.Name)
	}

	manifest := manifestItem{
		Path:          path,
		EngineVersion: snap.EngineVersion,
		SavedAt:       strfmt.DateTime(snap.SavedAt).String(),
		Collections:   names,
	}
	if err := putItem(ctx, a, manifest, EntityManifest); err != nil {
		return err
	}

	for _, item := range existing {
		c, ok := item.(*collectionItem)
		if !ok || keep[c.Collection] {
			continue
		}
		if err := deleteItem(ctx, a, *c); err != nil {
			return err
		}
	}
	return nil
}

func partitionKey(path string) string {
	indexMap, _ := registry.GetIndexMap[manifestItem]()
	expanded, _ := expandMacros(map[string]string{"PK": indexMap["PK"]}, manifestItem{Path: path})
	return expanded["PK"]
}

// putItem stores item with key attributes expanded from its registered index map.
func putItem[T any](ctx context.Context, a *Adapter, item T, entityType string) error {
	indexMap, ok := registry.GetIndexMap[T]()
	if !ok {
		return storeerrors.ErrNoIndexMap
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	expanded, err := expandMacros(indexMap, item)
	if err != nil {
		return err
	}
	for k, v := range expanded {
		av[k] = &types.AttributeValueMemberS{Value: v}
	}
	av["EntityType"] = &types.AttributeValueMemberS{Value: entityType}

	_, err = a.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: &a.tableName,
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

func deleteItem[T any](ctx context.Context, a *Adapter, item T) error {
	indexMap, ok := registry.GetIndexMap[T]()
	if !ok {
		return storeerrors.ErrNoIndexMap
	}
	expanded, err := expandMacros(indexMap, item)
	if err != nil {
		return err
	}
	keyMap, err := buildKeyFromExpanded(expanded)
	if err != nil {
		return err
	}

	_, err = a.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: &a.tableName,
		Key:       keyMap,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return fmt.Errorf("delete condition failed: %w", err)
		}
		return fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	return nil
}

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// expandMacros fills the "{Field}" macros of each template from keysInput.
func expandMacros(indexMap map[string]string, keysInput any) (map[string]string, error) {
	av, err := attributevalue.MarshalMap(keysInput)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keysInput: %w", err)
	}

	res := make(map[string]string, len(indexMap))
	for fieldName, template := range indexMap {
		res[fieldName] = macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			switch tv := av[strings.Trim(macro, "{}")].(type) {
			case *types.AttributeValueMemberS:
				return tv.Value
			case *types.AttributeValueMemberN:
				return tv.Value
			case *types.AttributeValueMemberBOOL:
				return fmt.Sprintf("%v", tv.Value)
			default:
				return ""
			}
		})
	}
	return res, nil
}

// buildKeyFromExpanded builds a DynamoDB key from the expanded index map.
func buildKeyFromExpanded(expanded map[string]string) (map[string]types.AttributeValue, error) {
	pk, okPK := expanded["PK"]
	sk, okSK := expanded["SK"]

	if !okPK || !okSK || pk == "" || sk == "" {
		return nil, fmt.Errorf("expanded index map missing valid PK or SK")
	}

	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}, nil
}
