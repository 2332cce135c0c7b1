package security

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
)

var (
	kmsClient *kms.Client
	kmsKeyID  string
)

// InitKMS initializes the AWS KMS client used to protect bin device keys.
func InitKMS() error {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		slog.Error("Failed to load AWS SDK config", "error", err)
		return fmt.Errorf("unable to load AWS SDK config: %v", err)
	}

	kmsClient = kms.NewFromConfig(cfg)

	kmsKeyID = os.Getenv("AWS_KMS_KEY_ID")
	if kmsKeyID == "" {
		slog.Error("Missing required environment variable", "variable", "AWS_KMS_KEY_ID")
		return fmt.Errorf("AWS_KMS_KEY_ID environment variable is required")
	}

	slog.Info("Successfully initialized AWS KMS client")
	return nil
}

// EncryptDeviceKey encrypts a device key under the current KMS key.
func EncryptDeviceKey(deviceKey string) (string, error) {
	if kmsClient == nil {
		slog.Error("KMS client not initialized")
		return "", fmt.Errorf("KMS client not initialized")
	}

	input := &kms.EncryptInput{
		KeyId:     aws.String(kmsKeyID),
		Plaintext: []byte(deviceKey),
	}

	result, err := kmsClient.Encrypt(context.TODO(), input)
	if err != nil {
		slog.Error("Failed to encrypt device key", "error", err)
		return "", fmt.Errorf("failed to encrypt device key: %v", err)
	}

	return base64.StdEncoding.EncodeToString(result.CiphertextBlob), nil
}

// DecryptDeviceKey decrypts a stored device key ciphertext.
func DecryptDeviceKey(encryptedKey string) (string, error) {
	if kmsClient == nil {
		slog.Error("KMS client not initialized")
		return "", fmt.Errorf("KMS client not initialized")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encryptedKey)
	if err != nil {
		slog.Error("Failed to decode encrypted key", "error", err)
		return "", fmt.Errorf("failed to decode encrypted key: %v", err)
	}

	input := &kms.DecryptInput{
		CiphertextBlob: ciphertext,
	}

	result, err := kmsClient.Decrypt(context.TODO(), input)
	if err != nil {
		slog.Error("Failed to decrypt device key", "error", err)
		return "", fmt.Errorf("failed to decrypt device key: %v", err)
	}

	return string(result.Plaintext), nil
}

// CreateRotatedKey provisions a replacement KMS key and makes it current.
func CreateRotatedKey(ctx context.Context) (string, error) {
	if kmsClient == nil {
		return "", fmt.Errorf("KMS client not initialized")
	}

	input := &kms.CreateKeyInput{
		Description: aws.String("Auto-rotated bin device key"),
		Tags: []types.Tag{
			{
				TagKey:   aws.String("AutoRotated"),
				TagValue: aws.String("true"),
			},
		},
	}

	result, err := kmsClient.CreateKey(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to create new KMS key: %v", err)
	}

	kmsKeyID = *result.KeyMetadata.KeyId
	if err := os.Setenv("AWS_KMS_KEY_ID", kmsKeyID); err != nil {
		return "", fmt.Errorf("failed to update KMS key ID: %v", err)
	}

	return kmsKeyID, nil
}
