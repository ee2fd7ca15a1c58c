package provider

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"duck-commerce/internal/config"
	"duck-commerce/internal/domain"
)

var _ domain.DatasetProvider = (*Azure)(nil)

// Azure reads source files from an Azure Blob Storage container.
type Azure struct {
	client    *azblob.Client
	account   string
	container string
	prefix    string
}

// NewAzure creates an Azure provider with shared-key credentials.
func NewAzure(cfg *config.Config) (*Azure, error) {
	if cfg.AzureAccountName == "" || cfg.AzureAccountKey == "" || cfg.AzureContainer == "" {
		return nil, fmt.Errorf("azure account name, key and container are required")
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AzureAccountName, cfg.AzureAccountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AzureAccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}

	return &Azure{
		client:    client,
		account:   cfg.AzureAccountName,
		container: cfg.AzureContainer,
		prefix:    cfg.DatasetPrefix,
	}, nil
}

// Open streams the blob.
func (p *Azure) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	key := objectKey(p.prefix, name)
	resp, err := p.client.DownloadStream(ctx, p.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("az://%s/%s: %w", p.container, key, domain.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("download az://%s/%s: %w", p.container, key, err)
	}
	return resp.Body, nil
}

// Describe returns the container URI.
func (p *Azure) Describe() string {
	return "az://" + objectKey(p.container, p.prefix) + " (" + p.account + ")"
}
