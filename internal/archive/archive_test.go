package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/shipref/pkg/errors"
	"github.com/agentstation/shipref/pkg/migrate"
)

type fakeStore struct {
	exists    bool
	existsErr error
	putErr    error

	made    []string
	objects map[string][]byte
	opts    map[string]minio.PutObjectOptions
}

func newFakeStore(exists bool) *fakeStore {
	return &fakeStore{
		exists:  exists,
		objects: make(map[string][]byte),
		opts:    make(map[string]minio.PutObjectOptions),
	}
}

func (f *fakeStore) BucketExists(context.Context, string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.made = append(f.made, bucket)
	f.exists = true
	return nil
}

func (f *fakeStore) PutObject(_ context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[object] = data
	f.opts[object] = opts
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: size}, nil
}

func testReport(dryRun bool) *migrate.Report {
	r := migrate.NewReport(dryRun, time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC))
	r.Collection("users").Updated = 2
	r.AddUnmatched(migrate.UnmatchedEntry{Collection: "users", DocumentID: "u1", FieldPath: "ships[0].name", Name: "Zeppelin"})
	r.Finalize(r.StartedAt.Add(time.Second))
	return r
}

func testArchiver(store ObjectStore) *Archiver {
	a := NewWithStore(store, "audit", "")
	a.newID = func() string { return "run1" }
	return a
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{Bucket: "b"}.Validate())
	assert.Error(t, Config{Endpoint: "localhost:9000"}.Validate())
	assert.NoError(t, Config{Endpoint: "localhost:9000", Bucket: "b"}.Validate())

	_, err := New(Config{})
	require.Error(t, err)
}

func TestObjectName(t *testing.T) {
	a := testArchiver(newFakeStore(true))
	assert.Equal(t, "shipref/reports/2025/03/01/20250301T123000Z-run1.json", a.ObjectName(testReport(false)))
	assert.Equal(t, "shipref/reports/2025/03/01/20250301T123000Z-run1-dryrun.json", a.ObjectName(testReport(true)))

	custom := NewWithStore(newFakeStore(true), "audit", "ops/ships")
	custom.newID = func() string { return "x" }
	assert.Equal(t, "ops/ships/2025/03/01/20250301T123000Z-x.json", custom.ObjectName(testReport(false)))
}

func TestUploadCreatesBucketAndStoresJSON(t *testing.T) {
	store := newFakeStore(false)
	a := testArchiver(store)

	location, err := a.Upload(context.Background(), testReport(false))
	require.NoError(t, err)
	assert.Equal(t, "s3://audit/shipref/reports/2025/03/01/20250301T123000Z-run1.json", location)
	assert.Equal(t, []string{"audit"}, store.made)

	object := "shipref/reports/2025/03/01/20250301T123000Z-run1.json"
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(store.objects[object], &decoded))
	assert.Len(t, decoded["unmatched"], 1)

	opts := store.opts[object]
	assert.Equal(t, "application/json", opts.ContentType)
	assert.Equal(t, "1", opts.UserMetadata["unmatched"])
	assert.Equal(t, "2", opts.UserMetadata["updated"])
	assert.Equal(t, "false", opts.UserMetadata["dry-run"])
}

func TestUploadUsesExistingBucket(t *testing.T) {
	store := newFakeStore(true)
	_, err := testArchiver(store).Upload(context.Background(), testReport(true))
	require.NoError(t, err)
	assert.Empty(t, store.made)
	assert.Len(t, store.objects, 1)
}

func TestUploadErrors(t *testing.T) {
	store := newFakeStore(true)
	store.existsErr = errors.New("access denied")
	_, err := testArchiver(store).Upload(context.Background(), testReport(false))
	require.Error(t, err)
	var resErr *pkgerrors.ResourceError
	assert.ErrorAs(t, err, &resErr)

	store = newFakeStore(true)
	store.putErr = errors.New("quota exceeded")
	_, err = testArchiver(store).Upload(context.Background(), testReport(false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
