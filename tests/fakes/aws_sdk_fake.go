package fakes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/systmms/keyring/pkg/keystore/awssm"
)

// FakeSecretsManagerClient is an in-memory implementation of
// awssm.SecretsManagerClientAPI
type FakeSecretsManagerClient struct {
	mu sync.Mutex

	// Secrets maps secret names to their data
	Secrets map[string]*SecretData
	// Errors maps secret names to errors to return from every operation
	Errors map[string]error
	// CreateSecretFunc allows custom behavior for CreateSecret
	CreateSecretFunc func(ctx context.Context, params *secretsmanager.CreateSecretInput) (*secretsmanager.CreateSecretOutput, error)
	// Calls counts calls by operation name
	Calls map[string]int
	// LastCreate holds the input of the most recent CreateSecret call
	LastCreate *secretsmanager.CreateSecretInput
	// Deadlines records whether each call carried a context deadline
	Deadlines []bool
}

// SecretData holds the data for a fake secret
type SecretData struct {
	SecretString  *string
	SecretBinary  []byte
	VersionId     *string
	CreatedDate   *time.Time
	Description   *string
	KmsKeyId      *string
	versionNumber int
}

// NewFakeSecretsManagerClient creates a new fake Secrets Manager client
func NewFakeSecretsManagerClient() *FakeSecretsManagerClient {
	return &FakeSecretsManagerClient{
		Secrets: make(map[string]*SecretData),
		Errors:  make(map[string]error),
		Calls:   make(map[string]int),
	}
}

// AddSecretString adds a string secret, as another tool would create it
func (f *FakeSecretsManagerClient) AddSecretString(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	f.Secrets[name] = &SecretData{
		SecretString:  aws.String(value),
		VersionId:     aws.String("v1"),
		CreatedDate:   &now,
		versionNumber: 1,
	}
}

// AddSecretBinary adds a binary secret
func (f *FakeSecretsManagerClient) AddSecretBinary(name string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	f.Secrets[name] = &SecretData{
		SecretBinary:  append([]byte{}, value...),
		VersionId:     aws.String("v1"),
		CreatedDate:   &now,
		versionNumber: 1,
	}
}

// AddError configures the fake to return an error for a specific secret
func (f *FakeSecretsManagerClient) AddError(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[name] = err
}

// Secret returns a copy of the stored data for name
func (f *FakeSecretsManagerClient) Secret(name string) (SecretData, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.Secrets[name]
	if !ok {
		return SecretData{}, false
	}
	return *data, true
}

func (f *FakeSecretsManagerClient) record(ctx context.Context, op, name string) error {
	f.Calls[op]++
	_, hasDeadline := ctx.Deadline()
	f.Deadlines = append(f.Deadlines, hasDeadline)
	if err, exists := f.Errors[name]; exists {
		return err
	}
	return nil
}

func notFound(name string) error {
	return &types.ResourceNotFoundException{
		Message: aws.String(fmt.Sprintf("Secrets Manager can't find the specified secret: %s", name)),
	}
}

func arn(name string) *string {
	return aws.String(fmt.Sprintf("arn:aws:secretsmanager:us-east-1:123456789012:secret:%s", name))
}

// GetSecretValue fakes the GetSecretValue operation
func (f *FakeSecretsManagerClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	secretName := aws.ToString(params.SecretId)
	if err := f.record(ctx, "GetSecretValue", secretName); err != nil {
		return nil, err
	}

	data, exists := f.Secrets[secretName]
	if !exists {
		return nil, notFound(secretName)
	}

	out := &secretsmanager.GetSecretValueOutput{
		ARN:           arn(secretName),
		Name:          params.SecretId,
		SecretString:  data.SecretString,
		VersionId:     data.VersionId,
		VersionStages: []string{"AWSCURRENT"},
		CreatedDate:   data.CreatedDate,
	}
	if data.SecretBinary != nil {
		out.SecretBinary = append([]byte{}, data.SecretBinary...)
	}
	return out, nil
}

// PutSecretValue fakes the PutSecretValue operation
func (f *FakeSecretsManagerClient) PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	secretName := aws.ToString(params.SecretId)
	if err := f.record(ctx, "PutSecretValue", secretName); err != nil {
		return nil, err
	}

	data, exists := f.Secrets[secretName]
	if !exists {
		return nil, notFound(secretName)
	}

	data.versionNumber++
	data.VersionId = aws.String(fmt.Sprintf("v%d", data.versionNumber))
	data.SecretString = params.SecretString
	data.SecretBinary = nil
	if params.SecretBinary != nil {
		data.SecretBinary = append([]byte{}, params.SecretBinary...)
	}

	return &secretsmanager.PutSecretValueOutput{
		ARN:           arn(secretName),
		Name:          params.SecretId,
		VersionId:     data.VersionId,
		VersionStages: []string{"AWSCURRENT"},
	}, nil
}

// CreateSecret fakes the CreateSecret operation
func (f *FakeSecretsManagerClient) CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	secretName := aws.ToString(params.Name)
	if err := f.record(ctx, "CreateSecret", secretName); err != nil {
		return nil, err
	}
	f.LastCreate = params
	if f.CreateSecretFunc != nil {
		return f.CreateSecretFunc(ctx, params)
	}

	if _, exists := f.Secrets[secretName]; exists {
		return nil, &types.ResourceExistsException{
			Message: aws.String(fmt.Sprintf("The operation failed because the secret %s already exists.", secretName)),
		}
	}

	now := time.Now()
	data := &SecretData{
		SecretString:  params.SecretString,
		VersionId:     aws.String("v1"),
		CreatedDate:   &now,
		Description:   params.Description,
		KmsKeyId:      params.KmsKeyId,
		versionNumber: 1,
	}
	if params.SecretBinary != nil {
		data.SecretBinary = append([]byte{}, params.SecretBinary...)
	}
	f.Secrets[secretName] = data

	return &secretsmanager.CreateSecretOutput{
		ARN:       arn(secretName),
		Name:      params.Name,
		VersionId: data.VersionId,
	}, nil
}

// DeleteSecret fakes the DeleteSecret operation; deletion is immediate
func (f *FakeSecretsManagerClient) DeleteSecret(ctx context.Context, params *secretsmanager.DeleteSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	secretName := aws.ToString(params.SecretId)
	if err := f.record(ctx, "DeleteSecret", secretName); err != nil {
		return nil, err
	}

	if _, exists := f.Secrets[secretName]; !exists {
		return nil, notFound(secretName)
	}
	delete(f.Secrets, secretName)

	now := time.Now()
	return &secretsmanager.DeleteSecretOutput{
		ARN:          arn(secretName),
		Name:         params.SecretId,
		DeletionDate: &now,
	}, nil
}

// Ensure FakeSecretsManagerClient implements awssm.SecretsManagerClientAPI
var _ awssm.SecretsManagerClientAPI = (*FakeSecretsManagerClient)(nil)
