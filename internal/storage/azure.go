package storage

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/sirupsen/logrus"
)

// AzureStorage stores entries as blobs in a single Azure Blob Storage container
type AzureStorage struct {
	client        *azblob.Client
	containerName string
}

// Ensure AzureStorage implements StorageInterface
var _ StorageInterface = (*AzureStorage)(nil)

// NewAzureStorage creates a new Azure Storage client using managed identity
func NewAzureStorage(accountName, containerName string) (*AzureStorage, error) {
	if accountName == "" {
		return nil, fmt.Errorf("%w: storage account name is required", ErrInitialization)
	}

	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create Azure credential: %w", ErrInitialization, err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClient(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create Azure blob client: %w", ErrInitialization, err)
	}

	return newAzureStorageWithClient(client, containerName)
}

func newAzureStorageWithClient(client *azblob.Client, containerName string) (*AzureStorage, error) {
	storage := &AzureStorage{
		client:        client,
		containerName: containerName,
	}

	if err := storage.ensureContainer(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	return storage, nil
}

func (s *AzureStorage) ensureContainer() error {
	ctx := context.Background()

	_, err := s.client.CreateContainer(ctx, s.containerName, nil)
	if err != nil {
		if !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return fmt.Errorf("failed to create container: %w", err)
		}
		logrus.Debugf("Container %s already exists", s.containerName)
	} else {
		logrus.Infof("Created container %s", s.containerName)
	}

	return nil
}

// Put uploads data as a single blob. A block blob only becomes visible once
// its block list is committed, so readers never see a partial upload.
func (s *AzureStorage) Put(name string, data []byte) (string, error) {
	if _, err := ValidateName(name); err != nil {
		return "", err
	}

	ctx := context.Background()
	_, err := s.client.UploadBuffer(ctx, s.containerName, name, data, &azblob.UploadBufferOptions{
		BlockSize:   int64(1024 * 1024), // 1MB blocks
		Concurrency: 3,
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload blob %s: %w", ErrStorage, name, err)
	}

	logrus.Debugf("Stored %s in Azure Blob Storage", name)
	return name, nil
}

// List returns the blob names at the top level of the container
func (s *AzureStorage) List() ([]string, error) {
	ctx := context.Background()

	names := make([]string, 0)
	pager := s.client.NewListBlobsFlatPager(s.containerName, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list blobs: %w", ErrStorage, err)
		}

		for _, blob := range page.Segment.BlobItems {
			// Blobs written by other tools may use virtual directories.
			if blob.Name == nil || !listable(*blob.Name) {
				continue
			}
			names = append(names, *blob.Name)
		}
	}
	sort.Strings(names)

	return names, nil
}

// Get downloads a blob
func (s *AzureStorage) Get(name string) ([]byte, error) {
	if _, err := ValidateName(name); err != nil {
		return nil, err
	}

	ctx := context.Background()
	response, err := s.client.DownloadStream(ctx, s.containerName, name, nil)
	if err != nil {
		return nil, s.classify("download", name, err)
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read blob %s: %w", ErrStorage, name, err)
	}

	return data, nil
}

// Delete removes a blob from Azure Blob Storage
func (s *AzureStorage) Delete(name string) error {
	if _, err := ValidateName(name); err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := s.client.DeleteBlob(ctx, s.containerName, name, nil); err != nil {
		return s.classify("delete", name, err)
	}

	logrus.Debugf("Deleted %s from Azure Blob Storage", name)
	return nil
}

func (s *AzureStorage) classify(op, name string, err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return fmt.Errorf("%w: %s blob %s: %w", ErrStorage, op, name, err)
}
