package reportstore

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

const (
	// Schema of the DynamoDB table: a string partition key and no sort key.
	tablePartitionKey = "runId"
	recordAttribute   = "record"

	defaultDynamoDBRegion = "us-east-1"
)

// DynamoDBPublisher puts one item per run into an existing table whose partition key is "runId".
type DynamoDBPublisher struct {
	dynamodb *dynamodb.DynamoDB
	table    string
}

func NewDynamoDBPublisher(config *aws.Config, table string) (*DynamoDBPublisher, error) {
	if table == "" {
		return nil, errors.New("no DynamoDB table name was specified")
	}
	sess, err := session.NewSession(config)
	if err != nil {
		return nil, err
	}
	return &DynamoDBPublisher{dynamodb: dynamodb.New(sess), table: table}, nil
}

func newDynamoDBPublisherFromURL(u *url.URL) (*DynamoDBPublisher, error) {
	query := u.Query()
	config := aws.NewConfig().WithRegion(defaultDynamoDBRegion)
	if region := query.Get("region"); region != "" {
		config = config.WithRegion(region)
	}
	if endpoint := query.Get("endpoint"); endpoint != "" {
		config = config.WithEndpoint(endpoint)
	}
	return NewDynamoDBPublisher(config, u.Host)
}

func (p *DynamoDBPublisher) Table() string { return p.table }

func (p *DynamoDBPublisher) Publish(ctx context.Context, record RunRecord) error {
	data, err := record.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = p.dynamodb.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(p.table),
		Item: map[string]*dynamodb.AttributeValue{
			tablePartitionKey: {S: aws.String(record.RunID)},
			"startTime":       {S: aws.String(record.StartTime.UTC().Format(time.RFC3339Nano))},
			"success":         {BOOL: aws.Bool(record.Success)},
			"passed":          {N: aws.String(strconv.Itoa(record.PassCount()))},
			"total":           {N: aws.String(strconv.Itoa(record.Total()))},
			recordAttribute:   {S: aws.String(string(data))},
		},
	})
	return err
}

func (p *DynamoDBPublisher) Close() error { return nil }
