package archive

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynamoDB struct {
	dynamodbiface.DynamoDBAPI
	batches     [][]*dynamodb.WriteRequest
	unprocessed int // how many items of each call to hand back as unprocessed
	err         error
}

func (f *fakeDynamoDB) BatchWriteItemWithContext(
	ctx aws.Context,
	input *dynamodb.BatchWriteItemInput,
	opts ...request.Option,
) (*dynamodb.BatchWriteItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	var batch []*dynamodb.WriteRequest
	var table string
	for t, requests := range input.RequestItems {
		table, batch = t, requests
	}
	f.batches = append(f.batches, batch)
	out := &dynamodb.BatchWriteItemOutput{}
	if f.unprocessed > 0 && len(batch) > 0 {
		n := f.unprocessed
		if n > len(batch) {
			n = len(batch)
		}
		out.UnprocessedItems = map[string][]*dynamodb.WriteRequest{table: batch[:n]}
	}
	return out, nil
}

func itemKey(r *dynamodb.WriteRequest) string {
	item := r.PutRequest.Item
	return aws.StringValue(item[tablePartitionKey].S) + "/" + aws.StringValue(item[tableSortKey].S) + "=" +
		aws.StringValue(item[valueAttribute].S)
}

func TestDynamoDBStoreWritesOneItemPerField(t *testing.T) {
	fake := &fakeDynamoDB{}
	store := &DynamoDBStore{dynamodb: fake, table: "results"}

	err := store.Record(context.Background(), "run1", map[string]string{"state": "halted", "ok": "false"})
	require.NoError(t, err)

	require.Len(t, fake.batches, 1)
	require.Len(t, fake.batches[0], 2)
	assert.Equal(t, "run1/ok=false", itemKey(fake.batches[0][0]))
	assert.Equal(t, "run1/state=halted", itemKey(fake.batches[0][1]))
}

func TestDynamoDBStoreBatchesOf25(t *testing.T) {
	fields := make(map[string]string)
	for i := 0; i < 30; i++ {
		fields[fmt.Sprintf("field%02d", i)] = "x"
	}
	fake := &fakeDynamoDB{}
	store := &DynamoDBStore{dynamodb: fake, table: "results"}

	require.NoError(t, store.Record(context.Background(), "run", fields))

	require.Len(t, fake.batches, 2)
	assert.Len(t, fake.batches[0], 25)
	assert.Len(t, fake.batches[1], 5)
}

func TestDynamoDBStoreGivesUpOnPersistentlyUnprocessedItems(t *testing.T) {
	fake := &fakeDynamoDB{unprocessed: 1}
	store := &DynamoDBStore{dynamodb: fake, table: "results"}

	err := store.Record(context.Background(), "run", map[string]string{"ok": "true", "state": "completed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 item(s) were still unprocessed after 5 attempts")
	require.Len(t, fake.batches, dynamoDBMaxAttempts)
	assert.Len(t, fake.batches[0], 2)
	assert.Len(t, fake.batches[1], 1)
}

func TestDynamoDBStoreReportsRequestError(t *testing.T) {
	fake := &fakeDynamoDB{err: errors.New("ResourceNotFoundException")}
	store := &DynamoDBStore{dynamodb: fake, table: "results"}

	err := store.Record(context.Background(), "run", map[string]string{"ok": "true"})
	require.Error(t, err)
	assert.Equal(t, "failed to write 1 item(s) in batches: ResourceNotFoundException", err.Error())
}
