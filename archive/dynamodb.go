package archive

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"golang.org/x/exp/slices"
)

const (
	// Schema of the DynamoDB table
	tablePartitionKey = "run"
	tableSortKey      = "field"
	valueAttribute    = "value"

	// BatchWriteItem accepts at most 25 requests
	dynamoDBMaxBatchSize = 25

	// how many times unprocessed items are resubmitted before giving up
	dynamoDBMaxAttempts = 5
)

// DynamoDBStore records each field of a run as an item whose partition key is the run key and
// whose sort key is the field name.
type DynamoDBStore struct {
	dynamodb dynamodbiface.DynamoDBAPI
	table    string
	region   string
}

// NewDynamoDBStore creates a store for table. Region and endpoint are optional; credentials come
// from the usual AWS environment.
func NewDynamoDBStore(table, region, endpoint string) (*DynamoDBStore, error) {
	if table == "" {
		return nil, fmt.Errorf("a DynamoDB table name is required")
	}
	config := aws.NewConfig()
	if region != "" {
		config = config.WithRegion(region)
	}
	if endpoint != "" {
		config = config.WithEndpoint(endpoint)
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *config,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &DynamoDBStore{dynamodb: dynamodb.New(sess), table: table, region: aws.StringValue(sess.Config.Region)}, nil
}

func (d *DynamoDBStore) DSN() string {
	if d.region == "" {
		return "dynamodb://" + d.table
	}
	return "dynamodb://" + d.table + "?region=" + d.region
}

func (d *DynamoDBStore) Record(ctx context.Context, key string, fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)

	requests := make([]*dynamodb.WriteRequest, 0, len(names))
	for _, name := range names {
		requests = append(requests, &dynamodb.WriteRequest{
			PutRequest: &dynamodb.PutRequest{
				Item: map[string]*dynamodb.AttributeValue{
					tablePartitionKey: {S: aws.String(key)},
					tableSortKey:      {S: aws.String(name)},
					valueAttribute:    {S: aws.String(fields[name])},
				},
			},
		})
	}

	if err := batchWriteRequests(ctx, d.dynamodb, d.table, requests); err != nil {
		return fmt.Errorf("failed to write %d item(s) in batches: %w", len(requests), err)
	}
	return nil
}

// batchWriteRequests executes the write requests in batches of 25, resubmitting any items
// DynamoDB reports as unprocessed.
func batchWriteRequests(
	ctx context.Context,
	client dynamodbiface.DynamoDBAPI,
	table string,
	requests []*dynamodb.WriteRequest,
) error {
	for len(requests) > 0 {
		batchSize := len(requests)
		if batchSize > dynamoDBMaxBatchSize {
			batchSize = dynamoDBMaxBatchSize
		}
		batch := requests[:batchSize]
		requests = requests[batchSize:]

		for attempt := 1; len(batch) > 0; attempt++ {
			if attempt > dynamoDBMaxAttempts {
				return fmt.Errorf("%d item(s) were still unprocessed after %d attempts", len(batch), dynamoDBMaxAttempts)
			}
			out, err := client.BatchWriteItemWithContext(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]*dynamodb.WriteRequest{table: batch},
			})
			if err != nil {
				return err
			}
			batch = out.UnprocessedItems[table]
		}
	}
	return nil
}
