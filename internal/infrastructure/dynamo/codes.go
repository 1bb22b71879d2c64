package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/portal-auth/internal/domain"
)

// CodeRepo manages login verification codes.
// PK: email, SK: code_id (ULID). Rows are kept after use as an audit trail.
type CodeRepo struct {
	client    API
	tableName string
}

func NewCodeRepo(client API, tableName string) *CodeRepo {
	return &CodeRepo{client: client, tableName: tableName}
}

func (r *CodeRepo) Put(ctx context.Context, c *domain.VerificationCode) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal verification code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#sk)"),
		ExpressionAttributeNames: map[string]string{"#sk": fieldCodeID},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("verification code id collision: %w", domain.ErrConflict)
	}
	return err
}

// FindLatestUnused walks the email's partition newest-first and returns the
// first unused row carrying code. The filter is applied after the key
// condition, so pages are followed until a match or the partition ends.
func (r *CodeRepo) FindLatestUnused(ctx context.Context, email, code string) (*domain.VerificationCode, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("#e = :e"),
		FilterExpression:       aws.String("#c = :c AND #u = :f"),
		ExpressionAttributeNames: map[string]string{
			"#e": fieldEmail,
			"#c": fieldCode,
			"#u": fieldUsed,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
			":c": &types.AttributeValueMemberS{Value: code},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
		ScanIndexForward: aws.Bool(false),
		ConsistentRead:   aws.Bool(true),
	})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		if len(out.Items) == 0 {
			continue
		}
		var c domain.VerificationCode
		if err := attributevalue.UnmarshalMap(out.Items[0], &c); err != nil {
			return nil, err
		}
		return &c, nil
	}
	return nil, fmt.Errorf("verification code not found: %w", domain.ErrNotFound)
}

// MarkUsed sets used=true only if the stored row is still unused.
func (r *CodeRepo) MarkUsed(ctx context.Context, c *domain.VerificationCode, usedAt time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldUsed:   true,
		fieldUsedAt: usedAt.UTC(),
	})
	if err != nil {
		return err
	}
	ue.Names["#cond_used"] = fieldUsed
	ue.Values[":cond_false"] = &types.AttributeValueMemberBOOL{Value: false}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey(fieldEmail, c.Email, fieldCodeID, c.CodeID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("#cond_used = :cond_false"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("code already used: %w", domain.ErrConflict)
	}
	return err
}
