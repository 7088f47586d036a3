// Пакет s3store — хранение документов в S3-совместимом бакете
// (MinIO, Ceph RGW, AWS S3). Адресация path-style.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/bigkaa/safety-portal/internal/storage"
)

// API — подмножество клиента S3, используемое хранилищем.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// Options — параметры подключения к бакету.
type Options struct {
	// Endpoint — URL S3-совместимого сервиса (пустой — AWS по умолчанию)
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// Store — storage.Backend поверх S3.
type Store struct {
	client API
	bucket string
}

var _ storage.Backend = (*Store)(nil)

// New создаёт клиента S3 и хранилище для бакета opts.Bucket.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Store, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	awsConfig, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации AWS SDK: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		// MinIO и большинство совместимых сервисов требуют path-style
		o.UsePathStyle = true
	})

	logger.Info("S3-хранилище документов инициализировано",
		slog.String("endpoint", opts.Endpoint),
		slog.String("bucket", opts.Bucket),
	)

	return NewWithClient(client, opts.Bucket), nil
}

// NewWithClient создаёт хранилище с готовым клиентом.
func NewWithClient(client API, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Put загружает объект. Документы ограничены лимитом запроса,
// поэтому тело буферизуется целиком: PutObject требует известную длину.
func (s *Store) Put(ctx context.Context, name string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения данных: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return 0, fmt.Errorf("ошибка загрузки объекта %s: %w", name, err)
	}
	return int64(len(data)), nil
}

// Open скачивает объект в память и возвращает seekable reader
// (http.ServeContent требует Seek для Range-запросов).
func (s *Store) Open(ctx context.Context, name string) (io.ReadSeekCloser, storage.ObjectInfo, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ObjectInfo{}, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, name)
		}
		return nil, storage.ObjectInfo{}, fmt.Errorf("ошибка получения объекта %s: %w", name, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, storage.ObjectInfo{}, fmt.Errorf("ошибка чтения объекта %s: %w", name, err)
	}

	info := storage.ObjectInfo{
		Name:    name,
		Size:    int64(len(data)),
		ModTime: aws.ToTime(out.LastModified),
	}
	return nopCloser{bytes.NewReader(data)}, info, nil
}

// Delete удаляет объект. S3 не возвращает ошибку для отсутствующего ключа.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("ошибка удаления объекта %s: %w", name, err)
	}
	return nil
}

// List перечисляет объекты бакета постранично.
func (s *Store) List(ctx context.Context) ([]storage.ObjectInfo, error) {
	var result []storage.ObjectInfo

	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ошибка получения списка объектов: %w", err)
		}
		for _, obj := range page.Contents {
			result = append(result, storage.ObjectInfo{
				Name:    aws.ToString(obj.Key),
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}
	return result, nil
}

// isNotFound распознаёт отсутствие ключа, в том числе от совместимых
// сервисов, возвращающих код NotFound вместо NoSuchKey.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
