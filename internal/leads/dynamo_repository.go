package leads

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// leadItem is the DynamoDB shape of a stored submission.
type leadItem struct {
	ID          string   `dynamodbav:"id"`
	Variant     string   `dynamodbav:"variant"`
	Name        string   `dynamodbav:"name"`
	Email       string   `dynamodbav:"email,omitempty"`
	Phone       string   `dynamodbav:"phone"`
	Category    string   `dynamodbav:"category,omitempty"`
	Area        string   `dynamodbav:"area,omitempty"`
	UTMSource   string   `dynamodbav:"utmSource"`
	UTMMedium   string   `dynamodbav:"utmMedium"`
	UTMCampaign string   `dynamodbav:"utmCampaign"`
	UTMTerm     string   `dynamodbav:"utmTerm,omitempty"`
	UTMContent  string   `dynamodbav:"utmContent,omitempty"`
	Photos      []string `dynamodbav:"photos,omitempty"`
	IPAddress   string   `dynamodbav:"ipAddress,omitempty"`
	UserAgent   string   `dynamodbav:"userAgent,omitempty"`
	SubmittedAt string   `dynamodbav:"submittedAt"`
}

// DynamoRepository stores leads in a DynamoDB table keyed by id.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
}

// NewDynamoRepository builds a repository backed by the provided client.
func NewDynamoRepository(client dynamoAPI, tableName string) *DynamoRepository {
	if client == nil {
		panic("leads: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("leads: table name cannot be empty")
	}
	return &DynamoRepository{client: client, tableName: tableName}
}

// Insert writes the item, refusing to overwrite an existing id.
func (r *DynamoRepository) Insert(ctx context.Context, sub *Submission) (string, error) {
	item, err := attributevalue.MarshalMap(toItem(sub))
	if err != nil {
		return "", fmt.Errorf("leads: failed to marshal item: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return "", fmt.Errorf("leads: failed to persist item: %w", err)
	}
	return sub.ID, nil
}

// GetByID fetches a stored lead.
func (r *DynamoRepository) GetByID(ctx context.Context, id string) (*Submission, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("leads: failed to fetch item: %w", err)
	}
	if out.Item == nil {
		return nil, ErrLeadNotFound
	}
	var item leadItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("leads: failed to decode item: %w", err)
	}
	return item.toSubmission(), nil
}

// List scans the table. Intended for small admin listings only.
func (r *DynamoRepository) List(ctx context.Context, filter ListFilter) ([]*Submission, error) {
	filter = filter.normalized()
	input := &dynamodb.ScanInput{TableName: aws.String(r.tableName)}
	if filter.Variant != "" {
		input.FilterExpression = aws.String("#variant = :variant")
		input.ExpressionAttributeNames = map[string]string{"#variant": "variant"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":variant": &types.AttributeValueMemberS{Value: string(filter.Variant)},
		}
	}

	var items []leadItem
	for {
		out, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		var page []leadItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("leads: failed to decode items: %w", err)
		}
		items = append(items, page...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	sort.Slice(items, func(i, j int) bool { return items[i].SubmittedAt > items[j].SubmittedAt })
	out := []*Submission{}
	for i := filter.Offset; i < len(items) && len(out) < filter.Limit; i++ {
		out = append(out, items[i].toSubmission())
	}
	return out, nil
}

func toItem(sub *Submission) leadItem {
	item := leadItem{
		ID:          sub.ID,
		Variant:     string(sub.Variant),
		Name:        sub.Name,
		Email:       sub.Email,
		Phone:       sub.Phone,
		Category:    sub.Category,
		Area:        sub.Area,
		UTMSource:   sub.Attribution.Source,
		UTMMedium:   sub.Attribution.Medium,
		UTMCampaign: sub.Attribution.Campaign,
		UTMTerm:     sub.Attribution.Term,
		UTMContent:  sub.Attribution.Content,
		IPAddress:   sub.IPAddress,
		UserAgent:   sub.UserAgent,
		SubmittedAt: sub.SubmittedAt.UTC().Format(time.RFC3339Nano),
	}
	for _, a := range sub.Attachments {
		item.Photos = append(item.Photos, a.Filename)
	}
	return item
}

func (item leadItem) toSubmission() *Submission {
	sub := &Submission{
		ID:       item.ID,
		Variant:  Variant(item.Variant),
		Name:     item.Name,
		Email:    item.Email,
		Phone:    item.Phone,
		Category: item.Category,
		Area:     item.Area,
		Attribution: Attribution{
			Source:   item.UTMSource,
			Medium:   item.UTMMedium,
			Campaign: item.UTMCampaign,
			Term:     item.UTMTerm,
			Content:  item.UTMContent,
		},
		IPAddress: item.IPAddress,
		UserAgent: item.UserAgent,
	}
	if ts, err := time.Parse(time.RFC3339Nano, item.SubmittedAt); err == nil {
		sub.SubmittedAt = ts
	}
	for _, name := range item.Photos {
		sub.Attachments = append(sub.Attachments, Attachment{Filename: name})
	}
	return sub
}
