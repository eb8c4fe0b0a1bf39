// Package awssm stores credentials as secrets in AWS Secrets Manager.
//
// It is not a platform store and is never chosen by default. Install it with
// keyring.SetDefaultCredentialBuilder or wrap its credentials with
// keyring.NewEntryWithCredential.
//
// An identity maps to the secret named prefix+"service/user", or
// prefix+target when the identity has a target. Values are written as
// SecretBinary so arbitrary bytes survive; secrets created by other tools
// with a SecretString are read as the bytes of that string.
package awssm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"

	"github.com/systmms/keyring/pkg/credential"
)

// Service limits.
const (
	MaxNameLen   = 512
	MaxSecretLen = 65536
)

// DefaultTimeout bounds each call to the service.
const DefaultTimeout = 10 * time.Second

var validName = regexp.MustCompile(`^[A-Za-z0-9/_+=.@-]*$`)

// SecretsManagerClientAPI is the subset of the Secrets Manager client the
// store uses. *secretsmanager.Client satisfies it.
type SecretsManagerClientAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	DeleteSecret(ctx context.Context, params *secretsmanager.DeleteSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error)
}

// Option configures a Builder.
type Option func(*Builder)

// WithClient sets a custom Secrets Manager client (for testing)
func WithClient(client SecretsManagerClientAPI) Option {
	return func(b *Builder) {
		b.client = client
	}
}

// WithRegion sets the AWS region used when no client is given.
func WithRegion(region string) Option {
	return func(b *Builder) {
		b.region = region
	}
}

// WithEndpoint sets a custom endpoint, e.g. for LocalStack.
func WithEndpoint(endpoint string) Option {
	return func(b *Builder) {
		b.endpoint = endpoint
	}
}

// WithStaticCredentials uses fixed access keys instead of the default
// credential chain.
func WithStaticCredentials(accessKeyID, secretAccessKey string) Option {
	return func(b *Builder) {
		b.accessKeyID = accessKeyID
		b.secretAccessKey = secretAccessKey
	}
}

// WithPrefix prepends prefix to every secret name.
func WithPrefix(prefix string) Option {
	return func(b *Builder) {
		b.prefix = prefix
	}
}

// WithKMSKeyID encrypts newly created secrets with the given KMS key.
func WithKMSKeyID(keyID string) Option {
	return func(b *Builder) {
		b.kmsKeyID = keyID
	}
}

// WithTimeout bounds each call to the service. Non-positive values are
// ignored.
func WithTimeout(d time.Duration) Option {
	return func(b *Builder) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// Builder creates credentials backed by Secrets Manager secrets.
type Builder struct {
	client          SecretsManagerClientAPI
	region          string
	endpoint        string
	accessKeyID     string
	secretAccessKey string
	prefix          string
	kmsKeyID        string
	timeout         time.Duration
}

// NewBuilder creates a builder. Without WithClient it loads the shared AWS
// configuration, which is the only step that uses ctx.
func NewBuilder(ctx context.Context, opts ...Option) (*Builder, error) {
	b := &Builder{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(b)
	}

	if b.client == nil {
		var configOpts []func(*config.LoadOptions) error
		if b.region != "" {
			configOpts = append(configOpts, config.WithRegion(b.region))
		}
		if b.accessKeyID != "" && b.secretAccessKey != "" {
			configOpts = append(configOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(b.accessKeyID, b.secretAccessKey, ""),
			))
		}

		cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		var clientOpts []func(*secretsmanager.Options)
		if b.endpoint != "" {
			endpoint := b.endpoint
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = aws.String(endpoint)
			})
		}
		b.client = secretsmanager.NewFromConfig(cfg, clientOpts...)
	}

	return b, nil
}

// Build maps id onto a secret name.
func (b *Builder) Build(id credential.Identity) (credential.Credential, error) {
	name, attr := b.SecretName(id)
	if target, ok := id.Target(); ok && target == "" {
		return nil, &credential.InvalidError{Attribute: "target", Reason: "cannot be empty"}
	}
	if len(name) > MaxNameLen {
		return nil, credential.TooLong(attr, MaxNameLen)
	}
	if !validName.MatchString(name) {
		return nil, &credential.InvalidError{
			Attribute: attr,
			Reason:    "may only contain letters, digits and /_+=.@-",
		}
	}

	return &Credential{
		name:     name,
		client:   b.client,
		kmsKeyID: b.kmsKeyID,
		timeout:  b.timeout,
	}, nil
}

// SecretName returns the secret name for id and the identity attribute it
// was derived from.
func (b *Builder) SecretName(id credential.Identity) (name, attribute string) {
	if target, ok := id.Target(); ok {
		return b.prefix + target, "target"
	}
	return b.prefix + id.Service() + "/" + id.User(), "service"
}

// Persistence reports that secrets survive until deleted.
func (b *Builder) Persistence() credential.Persistence {
	return credential.UntilDelete
}

// Credential is one Secrets Manager secret.
type Credential struct {
	name     string
	client   SecretsManagerClientAPI
	kmsKeyID string
	timeout  time.Duration
}

// Name returns the secret name.
func (c *Credential) Name() string { return c.name }

// SetPassword stores password.
func (c *Credential) SetPassword(password string) error {
	return c.SetSecret([]byte(password))
}

// SetSecret writes a new version of the secret, creating it if needed.
func (c *Credential) SetSecret(secret []byte) error {
	if len(secret) > MaxSecretLen {
		return credential.TooLong("secret", MaxSecretLen)
	}
	value := append([]byte{}, secret...)

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	err := c.put(ctx, value)
	if isNotFoundError(err) {
		err = c.create(ctx, value)
		// lost a race with another writer creating the same secret
		if isExistsError(err) {
			err = c.put(ctx, value)
		}
	}
	if err != nil {
		// the name stays reserved until the deletion is purged
		if isPendingDeletion(err) {
			return credential.PlatformFailure(err)
		}
		return classify(err)
	}
	return nil
}

func (c *Credential) put(ctx context.Context, value []byte) error {
	_, err := c.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(c.name),
		SecretBinary: value,
	})
	return err
}

func (c *Credential) create(ctx context.Context, value []byte) error {
	input := &secretsmanager.CreateSecretInput{
		Name:         aws.String(c.name),
		SecretBinary: value,
		Description:  aws.String("Created by keyring"),
	}
	if c.kmsKeyID != "" {
		input.KmsKeyId = aws.String(c.kmsKeyID)
	}
	_, err := c.client.CreateSecret(ctx, input)
	return err
}

// GetPassword returns the secret as a UTF-8 string.
func (c *Credential) GetPassword() (string, error) {
	secret, err := c.GetSecret()
	if err != nil {
		return "", err
	}
	return credential.DecodePassword(secret)
}

// GetSecret returns the current version of the secret.
func (c *Credential) GetSecret() ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	result, err := c.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(c.name),
	})
	if err != nil {
		return nil, classify(err)
	}

	switch {
	case result.SecretBinary != nil:
		return result.SecretBinary, nil
	case result.SecretString != nil:
		return []byte(*result.SecretString), nil
	default:
		return []byte{}, nil
	}
}

// DeleteCredential deletes the secret without a recovery window.
func (c *Credential) DeleteCredential() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	_, err := c.client.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(c.name),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// Underlying returns c.
func (c *Credential) Underlying() any {
	return c
}

func (c *Credential) String() string {
	return fmt.Sprintf("aws secrets manager credential %q", c.name)
}

// classify converts AWS errors to credential errors
func classify(err error) error {
	if isNotFoundError(err) || isPendingDeletion(err) {
		return credential.ErrNoEntry
	}
	if isAuthError(err) {
		return credential.NoStorageAccess(err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InvalidParameterException", "InvalidRequestException":
			return &credential.InvalidError{Attribute: "secret", Reason: apiErr.ErrorMessage()}
		}
	}
	return credential.PlatformFailure(err)
}

func isNotFoundError(err error) bool {
	var resourceNotFound *types.ResourceNotFoundException
	return errors.As(err, &resourceNotFound)
}

func isExistsError(err error) bool {
	var exists *types.ResourceExistsException
	return errors.As(err, &exists)
}

// isPendingDeletion reports the error AWS returns for a secret that was
// deleted but not yet purged.
func isPendingDeletion(err error) bool {
	var invalid *types.InvalidRequestException
	if !errors.As(err, &invalid) {
		return false
	}
	msg := strings.ToLower(invalid.ErrorMessage())
	return strings.Contains(msg, "marked for deletion") || strings.Contains(msg, "scheduled for deletion")
}

func isAuthError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDeniedException", "UnrecognizedClientException", "InvalidSignatureException",
			"ExpiredTokenException", "DecryptionFailure":
			return true
		}
	}
	// credential chain failures are not API errors
	errStr := err.Error()
	return strings.Contains(errStr, "AccessDenied") ||
		strings.Contains(errStr, "failed to retrieve credentials") ||
		strings.Contains(errStr, "Forbidden")
}

var (
	_ credential.Builder             = (*Builder)(nil)
	_ credential.PersistenceReporter = (*Builder)(nil)
	_ credential.Credential          = (*Credential)(nil)
	_ SecretsManagerClientAPI        = (*secretsmanager.Client)(nil)
)
