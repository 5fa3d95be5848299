package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/tourcheck/internal/logging"
	"github.com/dmitrijs2005/tourcheck/internal/server/config"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff(t *testing.T) {
	t.Helper()
	orig := connectBackoff
	connectBackoff = func() retry.Backoff {
		return retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond))
	}
	t.Cleanup(func() { connectBackoff = orig })
}

func testConfig(storage string) *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.Storage = storage
	return c
}

func TestOpen_Memory(t *testing.T) {
	m, err := Open(context.Background(), testConfig(config.StorageMemory), logging.Nop())
	require.NoError(t, err)
	defer m.Close()

	docs := m.Documents()
	require.NoError(t, docs.Put(context.Background(), "p", []byte(`{}`)))
	got, err := m.Documents().Get(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))
}

func TestOpen_UnknownStorage(t *testing.T) {
	_, err := Open(context.Background(), testConfig("mongo"), logging.Nop())
	require.Error(t, err)
}

func TestOpen_Redis(t *testing.T) {
	s := miniredis.RunT(t)
	cfg := testConfig(config.StorageRedis)
	cfg.RedisAddr = s.Addr()

	m, err := Open(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Documents().Put(context.Background(), "tours/TUR-AB23", []byte(`{"ts":1}`)))
	v, err := s.Get("tourcheck:tours/TUR-AB23")
	require.NoError(t, err)
	assert.Equal(t, `{"ts":1}`, v)
}

func TestOpen_RedisUnreachable(t *testing.T) {
	fastBackoff(t)
	s := miniredis.RunT(t)
	cfg := testConfig(config.StorageRedis)
	cfg.RedisAddr = s.Addr()
	s.Close()

	_, err := Open(context.Background(), cfg, logging.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reachable")
}

func withMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	origOpen := sqlOpen
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		if driver != "pgx" {
			return nil, errors.New("unexpected driver")
		}
		return db, nil
	}
	t.Cleanup(func() { sqlOpen = origOpen })
	return mock
}

func TestOpen_PostgresRunsMigrations(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectPing()
	mock.ExpectClose()

	var migrated bool
	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		migrated = dir == "."
		return nil
	}
	t.Cleanup(func() { gooseUpContext = orig })

	m, err := Open(context.Background(), testConfig(config.StoragePostgres), logging.Nop())
	require.NoError(t, err)
	assert.True(t, migrated)
	assert.NotNil(t, m.Documents())

	require.NoError(t, m.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_PostgresRetriesPing(t *testing.T) {
	fastBackoff(t)
	mock := withMockDB(t)
	mock.ExpectPing().WillReturnError(errors.New("starting up"))
	mock.ExpectPing()

	orig := gooseUpContext
	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error { return nil }
	t.Cleanup(func() { gooseUpContext = orig })

	m, err := Open(context.Background(), testConfig(config.StoragePostgres), logging.Nop())
	require.NoError(t, err)
	defer m.Close()
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_PostgresMigrationError(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectPing()
	mock.ExpectClose()

	orig := gooseUpContext
	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error { return errors.New("boom") }
	t.Cleanup(func() { gooseUpContext = orig })

	_, err := Open(context.Background(), testConfig(config.StoragePostgres), logging.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewS3RepositoryManager_AppliesOptions(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() { loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew })

	var region string
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		region = lo.Region
		return aws.Config{Region: lo.Region}, nil
	}
	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	cfg := testConfig(config.StorageS3)
	cfg.S3BaseEndpoint = "http://minio:9000"
	m, err := NewS3RepositoryManager(context.Background(), cfg)

	require.NoError(t, err)
	assert.Equal(t, "us-east-1", region)
	assert.Equal(t, "http://minio:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
	assert.NotNil(t, m.Documents())
}

func TestNewS3RepositoryManager_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no region")
	}

	_, err := NewS3RepositoryManager(context.Background(), testConfig(config.StorageS3))
	require.Error(t, err)
}
